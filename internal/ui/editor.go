package ui

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/google/shlex"
	"github.com/jroimartin/gocui"
)

// singleLineEditor leaves Enter to the keybinding.
type singleLineEditor struct{}

func (e singleLineEditor) Edit(v *gocui.View, key gocui.Key, ch rune, mod gocui.Modifier) {
	switch {
	case key == gocui.KeyBackspace || key == gocui.KeyBackspace2:
		v.EditDelete(true)
	case key == gocui.KeyDelete:
		v.EditDelete(false)
	case key == gocui.KeyArrowLeft:
		v.MoveCursor(-1, 0, false)
	case key == gocui.KeyArrowRight:
		v.MoveCursor(1, 0, false)
	case key == gocui.KeyHome || key == gocui.KeyCtrlA:
		v.SetCursor(0, 0)
	case key == gocui.KeyEnd || key == gocui.KeyCtrlE:
		v.SetCursor(len(viewText(v)), 0)
	case key == gocui.KeySpace:
		v.EditWrite(' ')
	case key == gocui.KeyEnter:
	case ch != 0 && mod == 0:
		v.EditWrite(ch)
	}
}

// editBody writes the route's body to a temp file and leaves the main loop
// so Run can start the editor on it.
func (a *App) editBody(*gocui.Gui, *gocui.View) error {
	if a.route.Body == nil {
		return nil
	}
	in := a.input(a.route)
	seed := a.st.BodyTemplate(a.route.ID())
	if in.body != nil {
		seed = *in.body
	}
	if !strings.HasSuffix(seed, "\n") {
		seed += "\n"
	}

	f, err := os.CreateTemp("", "makerapi-body-*.json")
	if err != nil {
		a.setMsg(err.Error())
		return nil
	}
	_, err = f.WriteString(seed)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(f.Name())
		a.setMsg(err.Error())
		return nil
	}
	a.suspendEditorFile = f.Name()
	return gocui.ErrQuit
}

// runExternalEditor edits file and stores the result as the body of the
// current route. The text is kept as typed; invalid JSON is reported when
// the request is sent.
func (a *App) runExternalEditor(file string) error {
	defer os.Remove(file)

	args, err := editorCommand(a.editor, os.Getenv("EDITOR"))
	if err != nil {
		return err
	}
	a.log.Debug("starting editor", "cmd", args[0], "file", file)
	cmd := exec.Command(args[0], append(args[1:], file)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("editor: %w", err)
	}

	b, err := os.ReadFile(file)
	if err != nil {
		return err
	}
	body := strings.TrimRight(string(b), "\n")
	a.input(a.route).body = &body
	return nil
}

// editorCommand splits the configured editor, then $EDITOR, with shell
// quoting rules. vi is the fallback.
func editorCommand(configured, env string) ([]string, error) {
	for _, s := range []string{configured, env} {
		if strings.TrimSpace(s) == "" {
			continue
		}
		args, err := shlex.Split(s)
		if err != nil {
			return nil, fmt.Errorf("editor %q: %w", s, err)
		}
		if len(args) == 0 {
			return nil, errors.New("editor command is empty")
		}
		return args, nil
	}
	return []string{"vi"}, nil
}
