// Package cli is the terminal front end: a line-oriented REPL that renders
// the view state and turns commands into view actions.
package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/dcode-github/imovel_listing_system/client/notify"
	"github.com/dcode-github/imovel_listing_system/client/view"
	"github.com/dcode-github/imovel_listing_system/logging"
)

const helpText = `Comandos:
  list                      lista os imóveis (com os filtros ativos)
  search <termo>            filtra por título, endereço ou corretor
  purpose <todas|venda|locacao>
  min <valor> | max <valor> faixa de preço (vazio remove o limite)
  clear                     remove todos os filtros
  show <id> | close         abre e fecha os detalhes de um imóvel
  new                       cadastra um imóvel
  edit <id>                 edita um imóvel
  delete <id>               pede a exclusão de um imóvel (confirme com yes/no)
  retry                     recarrega a lista após uma falha
  notes | dismiss <id>      mostra e descarta notificações
  help | quit`

type App struct {
	in    *bufio.Reader
	out   io.Writer
	view  *view.Machine
	notes *notify.Queue
	log   *slog.Logger

	shown map[string]bool
}

func New(in io.Reader, out io.Writer, m *view.Machine, notes *notify.Queue, log *slog.Logger) *App {
	if log == nil {
		log = logging.Discard()
	}
	return &App{
		in:    bufio.NewReader(in),
		out:   out,
		view:  m,
		notes: notes,
		log:   log,
		shown: make(map[string]bool),
	}
}

// Run loads the listings and serves commands until quit or end of input.
func (a *App) Run(ctx context.Context) error {
	fmt.Fprintln(a.out, "Imóveis (digite 'help' para ver os comandos)")
	// a failed load renders the retry hint
	_ = a.view.Load(ctx)
	a.list()
	a.flushNotes()

	for {
		if ctx.Err() != nil {
			return nil
		}
		line, err := readLine(a.in, a.out, a.prompt())
		if errors.Is(err, io.EOF) {
			fmt.Fprintln(a.out)
			return nil
		}
		if err != nil {
			return err
		}
		if quit := a.dispatch(ctx, line); quit {
			return nil
		}
		a.flushNotes()
	}
}

func (a *App) prompt() string {
	st := a.view.State()
	switch {
	case st.ConfirmOpen:
		return fmt.Sprintf("excluir imóvel %s? (yes/no)> ", st.PendingDelete)
	case st.Detail != nil:
		return fmt.Sprintf("imoveis [%s]> ", st.Detail.ID)
	default:
		return "imoveis> "
	}
}

func (a *App) dispatch(ctx context.Context, line string) bool {
	cmd, arg, _ := strings.Cut(strings.TrimSpace(line), " ")
	arg = strings.TrimSpace(arg)

	switch strings.ToLower(cmd) {
	case "":
	case "help":
		fmt.Fprintln(a.out, helpText)
	case "list", "ls":
		a.list()
	case "search":
		a.view.SetTerm(arg)
		a.list()
	case "purpose":
		a.view.SetPurpose(arg)
		a.list()
	case "min":
		a.view.SetMinPrice(arg)
		a.list()
	case "max":
		a.view.SetMaxPrice(arg)
		a.list()
	case "clear":
		a.view.ClearFilters()
		a.list()
	case "show":
		if a.needID("show", arg) && a.view.ShowDetails(ctx, arg) == nil {
			renderDetail(a.out, *a.view.State().Detail)
		}
	case "close":
		a.view.CloseDetails()
	case "new":
		a.view.NewListing()
		a.form(ctx, view.Form{})
	case "edit":
		if a.needID("edit", arg) && a.view.EditListing(ctx, arg) == nil {
			a.form(ctx, view.FormFrom(*a.view.State().Selected))
		}
	case "delete", "rm":
		if a.needID("delete", arg) {
			a.view.RequestDelete(arg)
		}
	case "yes", "y", "sim":
		if err := a.view.ConfirmDelete(ctx); errors.Is(err, view.ErrNoPendingDelete) {
			fmt.Fprintln(a.out, "Nenhuma exclusão pendente.")
		}
	case "no", "n", "nao", "não":
		a.view.CancelDelete()
	case "retry":
		if a.view.Retry(ctx) == nil {
			a.list()
		}
	case "notes":
		a.printNotes()
	case "dismiss":
		a.dismiss(arg)
	case "quit", "exit":
		fmt.Fprintln(a.out, "Até logo!")
		return true
	default:
		fmt.Fprintf(a.out, "Comando desconhecido: %s (digite 'help')\n", cmd)
	}
	return false
}

func (a *App) needID(cmd, arg string) bool {
	if arg == "" {
		fmt.Fprintf(a.out, "Uso: %s <id>\n", cmd)
		return false
	}
	return true
}

func (a *App) list() {
	st := a.view.State()
	renderCriteria(a.out, st)
	renderList(a.out, st, a.view.Visible())
}

// form prompts every field, starting from f, and submits. While the
// submission fails the user may correct the input or give up.
func (a *App) form(ctx context.Context, f view.Form) {
	for {
		var err error
		if f, err = a.readForm(f); err != nil {
			a.view.Cancel()
			return
		}

		err = a.view.Submit(ctx, f)
		if err == nil {
			a.list()
			return
		}
		a.log.Debug("Submit failed", "error", err)

		var verr *view.ValidationError
		if errors.As(err, &verr) {
			renderFormErrors(a.out, verr.Fields)
		}
		a.flushNotes()

		again, rerr := readYesNo(a.in, a.out, "Tentar novamente?", true)
		if rerr != nil || !again {
			a.view.Cancel()
			return
		}
	}
}

func (a *App) readForm(f view.Form) (view.Form, error) {
	fields := []struct {
		label string
		dst   *string
	}{
		{"Título", &f.Title},
		{"Descrição", &f.Description},
		{"Endereço", &f.Address},
		{"Finalidade (venda/locacao)", &f.Purpose},
		{"Valor", &f.Price},
		{"Quartos", &f.Bedrooms},
		{"Banheiros", &f.Bathrooms},
	}
	for _, fld := range fields {
		v, err := readField(a.in, a.out, fld.label, *fld.dst)
		if err != nil {
			return f, err
		}
		*fld.dst = v
	}

	garage, err := readYesNo(a.in, a.out, "Garagem", f.Garage)
	if err != nil {
		return f, err
	}
	f.Garage = garage

	agent, err := readField(a.in, a.out, "Corretor", f.Agent)
	if err != nil {
		return f, err
	}
	f.Agent = agent
	return f, nil
}

// flushNotes prints the notifications that appeared since the last call.
func (a *App) flushNotes() {
	current := a.notes.List()
	seen := make(map[string]bool, len(current))
	for _, n := range current {
		seen[n.ID] = true
		if !a.shown[n.ID] {
			renderNotification(a.out, n)
		}
	}
	a.shown = seen
}

func (a *App) printNotes() {
	current := a.notes.List()
	if len(current) == 0 {
		fmt.Fprintln(a.out, "Nenhuma notificação.")
		return
	}
	for _, n := range current {
		renderNotification(a.out, n)
		a.shown[n.ID] = true
	}
}

// dismiss accepts the short id printed next to each notification.
func (a *App) dismiss(prefix string) {
	if prefix == "" {
		fmt.Fprintln(a.out, "Uso: dismiss <id>")
		return
	}
	for _, n := range a.notes.List() {
		if strings.HasPrefix(n.ID, prefix) {
			a.notes.Dismiss(n.ID)
			return
		}
	}
	fmt.Fprintln(a.out, "Notificação não encontrada.")
}
