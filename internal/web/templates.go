package web

import (
    "bytes"
    "html/template"
    "net/http"

    "github.com/jaminalder/tictactoe-timetravel/internal/app"
    "github.com/jaminalder/tictactoe-timetravel/internal/domain"
)

type templates struct {
    game    *template.Template
    board   *template.Template
    history *template.Template
    index   *template.Template
}

func loadTemplates() *templates {
    base := template.Must(template.New("base").Parse(`<!doctype html><html><head>
<meta charset="utf-8"/>
<title>Tic-tac-toe</title>
<script src="https://unpkg.com/htmx.org@1.9.12"></script>
<script src="https://unpkg.com/htmx.org/dist/ext/sse.js"></script>
<style>
.board td{width:2.5em;height:2.5em;text-align:center;border:1px solid #999}
.board td.winner{background:#cfc}
.board button{width:100%;height:100%;border:0;background:none}
.history .board td{width:.8em;height:.8em;font-size:.6em}
.game-over .board button{cursor:default}
</style>
</head><body>{{template "content" .}}</body></html>`))
    // Fragments are defined within the same set so the page can include them
    template.Must(base.New("board").Parse(boardTemplate))
    template.Must(base.New("history").Parse(historyTemplate))
    index := template.Must(template.Must(base.Clone()).New("content").Parse(`<h1>Tic-tac-toe</h1>
{{range .Sizes}}<form action="/game" method="post"><input type="hidden" name="size" value="{{.}}"><button>New {{.}}&times;{{.}} game</button></form>
{{end}}<form action="/game" method="post"><label>Board size {{.Min}} to {{.Max}}
<input type="number" name="size" min="{{.Min}}" max="{{.Max}}" required></label><button>New game</button></form>`))
    game := template.Must(template.Must(base.Clone()).New("content").Parse(`
<article hx-ext="sse" hx-sse="connect:/game/{{.Board.ID}}/events">
  <div class="active-side" hx-sse="swap:board">{{template "board" .Board}}</div>
  <div class="history-side" hx-sse="swap:history">{{template "history" .History}}</div>
</article>`))
    // Standalone fragments used for partial rendering
    board := template.Must(template.New("board_only").Parse(boardTemplate))
    history := template.Must(template.New("history_only").Parse(historyTemplate))
    return &templates{game: game, board: board, history: history, index: index}
}

func renderTemplate(t *template.Template, data any) []byte {
    var buf bytes.Buffer
    _ = t.Execute(&buf, data)
    return buf.Bytes()
}

const boardTemplate = `<div id="board" class="game{{if .Over}} game-over{{end}}">
  <p class="status">{{.Status}}</p>
  {{if .Error}}<div class="alert">{{.Error}}</div>{{end}}
  <table class="board">
  {{range .Rows}}<tr>
    {{range .}}<td class="{{if .Winner}}winner{{end}}">
      <form hx-post="/game/{{.GameID}}/play" hx-target="#board" hx-swap="outerHTML" method="post">
        <input type="hidden" name="r" value="{{.Row}}">
        <input type="hidden" name="c" value="{{.Col}}">
        <button type="submit"{{if not .Playable}} disabled{{end}}>{{.Symbol}}</button>
      </form>
    </td>{{end}}
  </tr>{{end}}
  </table>
</div>`

const historyTemplate = `<div id="history" class="history"{{if .OOB}} hx-swap-oob="true"{{end}}>
  <p>History</p>
  {{range .Entries}}<form hx-post="/game/{{$.ID}}/rewind" hx-target="#board" hx-swap="outerHTML" method="post">
    <input type="hidden" name="index" value="{{.Index}}">
    <button type="submit" title="Turn {{.Index}}"><table class="board">
    {{range .Rows}}<tr>{{range .}}<td>{{.}}</td>{{end}}</tr>{{end}}
    </table></button>
  </form>{{end}}
</div>`

type cellData struct {
    GameID   string
    Row, Col int
    Symbol   string
    Winner   bool
    Playable bool
}

type boardData struct {
    ID     string
    Status string
    Over   bool
    Error  string
    Rows   [][]cellData
}

type historyEntryData struct {
    Index int
    Rows  [][]domain.Cell
}

type historyData struct {
    ID      string
    OOB     bool
    Entries []historyEntryData
}

// statusMessage mirrors the status line of the game page.
func statusMessage(p domain.Phase, next domain.Cell) string {
    switch p.Kind {
    case domain.Won:
        return "Winner: " + p.Winner.String()
    case domain.Draw:
        return "Draw"
    default:
        return "Next player: " + next.String()
    }
}

func newBoardData(v app.GameView, errMsg string) boardData {
    d := boardData{
        ID:     v.ID,
        Status: statusMessage(v.Phase, v.Player),
        Over:   v.Phase.Over(),
        Error:  errMsg,
    }
    for r, row := range v.Board.Rows() {
        cells := make([]cellData, len(row))
        for c, cell := range row {
            cells[c] = cellData{
                GameID:   v.ID,
                Row:      r,
                Col:      c,
                Symbol:   cell.String(),
                Winner:   v.Phase.Kind == domain.Won && v.Phase.Line.Contains(r, c),
                Playable: !d.Over && cell == domain.Empty,
            }
        }
        d.Rows = append(d.Rows, cells)
    }
    return d
}

func newHistoryData(v app.GameView, oob bool) historyData {
    d := historyData{ID: v.ID, OOB: oob}
    for _, s := range v.History {
        d.Entries = append(d.Entries, historyEntryData{Index: s.Index, Rows: s.Board.Rows()})
    }
    return d
}

// renderer produces the htmx fragments pushed over server-sent events.
type renderer struct{ tpl *templates }

func (r renderer) Board(v app.GameView) []byte {
    return renderTemplate(r.tpl.board, newBoardData(v, ""))
}

func (r renderer) History(v app.GameView) []byte {
    return renderTemplate(r.tpl.history, newHistoryData(v, false))
}

// Helper to write a board fragment plus an out-of-band history refresh
func writeFragments(w http.ResponseWriter, tpl *templates, status int, v app.GameView, errMsg string) {
    w.Header().Set("Content-Type", "text/html; charset=utf-8")
    w.WriteHeader(status)
    _, _ = w.Write(renderTemplate(tpl.board, newBoardData(v, errMsg)))
    _, _ = w.Write(renderTemplate(tpl.history, newHistoryData(v, true)))
}
