package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/samber/lo"

	nanobanana "github.com/seiseiai1st/NanoBananaProPlayGround"
	"github.com/seiseiai1st/NanoBananaProPlayGround/internal/logger"
)

const helpText = `Type a prompt to generate an image, or one of:
  /key [key]            show or set the API key
  /ratio [ratio]        show or set the aspect ratio
  /res [1K|2K|4K]       show or set the resolution
  /ref <path>|clear     attach or remove a reference image
  /history              list recent generations
  /show <n>             display history entry n again
  /save [n] [file]      save the current image or entry n
  /cost                 show last and total cost
  /settings             show current settings
  /help                 show this help
  /quit                 exit`

var (
	errorColor  = color.New(color.FgRed)
	costColor   = color.New(color.FgCyan)
	infoColor   = color.New(color.FgGreen)
	detailColor = color.New(color.Faint)
)

type repl struct {
	session *nanobanana.Session
	in      io.Reader
	out     io.Writer
}

func newREPL(session *nanobanana.Session, in io.Reader, out io.Writer) *repl {
	return &repl{session: session, in: in, out: out}
}

// Run reads lines until EOF, /quit or ctx is done.
func (r *repl) Run(ctx context.Context) error {
	fmt.Fprintf(r.out, "nbp (%s). Type /help for commands.\n", r.session.Model().APIModelName)
	if r.session.Settings().APIKey == "" {
		errorColor.Fprintln(r.out, "No API key set. Use /key <key> first.")
	}

	scanner := bufio.NewScanner(r.in)
	for {
		fmt.Fprint(r.out, "> ")
		if !scanner.Scan() {
			fmt.Fprintln(r.out)
			return scanner.Err()
		}
		if ctx.Err() != nil {
			return nil
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if quit := r.handle(ctx, line); quit {
			return nil
		}
	}
}

// handle runs one input line and reports whether the loop should stop.
func (r *repl) handle(ctx context.Context, line string) bool {
	if !strings.HasPrefix(line, "/") {
		r.generate(ctx, line)
		return false
	}

	fields := strings.Fields(line)
	cmd, args := fields[0], fields[1:]

	var err error
	switch cmd {
	case "/quit", "/exit":
		return true
	case "/help":
		fmt.Fprintln(r.out, helpText)
	case "/key":
		err = r.setKey(args)
	case "/ratio":
		err = r.setRatio(args)
	case "/res":
		err = r.setResolution(args)
	case "/ref":
		err = r.setReference(args)
	case "/history":
		r.printHistory()
	case "/show":
		err = r.show(args)
	case "/save":
		err = r.save(ctx, args)
	case "/cost":
		r.printCost()
	case "/settings":
		r.printSettings()
	default:
		err = fmt.Errorf("unknown command %s (try /help)", cmd)
	}

	if err != nil {
		errorColor.Fprintln(r.out, err.Error())
	}
	return false
}

func (r *repl) generate(ctx context.Context, prompt string) {
	if r.session.CanGenerate(prompt) {
		fmt.Fprintln(r.out, "Generating...")
	}

	entry, err := r.session.Generate(ctx, prompt)
	if err != nil {
		r.printFailure(err)
		return
	}

	infoColor.Fprintf(r.out, "Generated %s (%d bytes). Use /save to write it to disk.\n",
		entry.Image.MIMEType, len(entry.Image.Data))
	r.printCost()
}

func (r *repl) printFailure(err error) {
	genErr, ok := nanobanana.AsGenerationError(err)
	if !ok {
		errorColor.Fprintln(r.out, err.Error())
		return
	}
	errorColor.Fprintln(r.out, genErr.Message())
	if genErr.Diagnostic != "" {
		detailColor.Fprintln(r.out, genErr.Diagnostic)
	}
}

func (r *repl) setKey(args []string) error {
	if len(args) == 0 {
		key := r.session.Settings().APIKey
		if key == "" {
			fmt.Fprintln(r.out, "API key: (not set)")
		} else {
			fmt.Fprintf(r.out, "API key: %s\n", logger.MaskSecret(key))
		}
		return nil
	}
	if err := r.session.SetAPIKey(args[0]); err != nil {
		return err
	}
	infoColor.Fprintln(r.out, "API key saved.")
	return nil
}

func (r *repl) setRatio(args []string) error {
	if len(args) == 0 {
		choices := lo.Map(nanobanana.AspectRatios(), func(a nanobanana.AspectRatio, _ int) string {
			return a.String()
		})
		fmt.Fprintf(r.out, "Aspect ratio: %s (choices: %s)\n",
			r.session.Settings().AspectRatio, strings.Join(choices, ", "))
		return nil
	}
	ratio, err := nanobanana.ParseAspectRatio(args[0])
	if err != nil {
		return err
	}
	return r.session.SetAspectRatio(ratio)
}

func (r *repl) setResolution(args []string) error {
	if len(args) == 0 {
		fmt.Fprintf(r.out, "Resolution: %s\n", r.session.Settings().Resolution)
		for _, res := range nanobanana.Resolutions() {
			c := nanobanana.CalculateCost(res, false)
			fmt.Fprintf(r.out, "  %s  %s (~%d JPY)\n", res, c, c.ToJPY(r.session.ExchangeRate()))
		}
		return nil
	}
	res, err := nanobanana.ParseResolution(args[0])
	if err != nil {
		return err
	}
	return r.session.SetResolution(res)
}

func (r *repl) setReference(args []string) error {
	if len(args) == 0 {
		return errors.New("usage: /ref <path> or /ref clear")
	}
	if args[0] == "clear" {
		r.session.ClearReference()
		fmt.Fprintln(r.out, "Reference image removed.")
		return nil
	}

	img, err := nanobanana.LoadReferenceImage(strings.Join(args, " "))
	if err != nil {
		return err
	}
	if err := r.session.SetReference(img); err != nil {
		return err
	}
	fmt.Fprintf(r.out, "Reference image: %s (%s, %d bytes)\n", img.Name, img.MIMEType, img.Size)
	return nil
}

func (r *repl) printHistory() {
	history := r.session.History()
	if len(history) == 0 {
		fmt.Fprintln(r.out, "No images yet.")
		return
	}
	selected := r.session.Selected()
	for i, e := range history {
		marker := " "
		if i == selected {
			marker = "*"
		}
		fmt.Fprintf(r.out, "%s%2d  %s  %s\n", marker, i+1, e.Timestamp.Format("15:04:05"), e.Prompt)
	}
}

func (r *repl) show(args []string) error {
	index, err := historyIndex(args)
	if err != nil {
		return err
	}
	entry, err := r.session.Select(index)
	if err != nil {
		return err
	}
	fmt.Fprintf(r.out, "Showing #%d: %s (%s, %d bytes)\n",
		index+1, entry.Prompt, entry.Image.MIMEType, len(entry.Image.Data))
	return nil
}

func (r *repl) save(ctx context.Context, args []string) error {
	index := -1
	if len(args) > 0 {
		if _, err := strconv.Atoi(args[0]); err == nil {
			i, err := historyIndex(args)
			if err != nil {
				return err
			}
			index = i
			args = args[1:]
		}
	}
	name := ""
	if len(args) > 0 {
		name = args[0]
	}

	path, err := r.session.Download(ctx, index, name)
	if err != nil {
		return err
	}
	infoColor.Fprintf(r.out, "Saved %s\n", path)
	return nil
}

func (r *repl) printCost() {
	c := r.session.Costs()
	rate := r.session.ExchangeRate()
	costColor.Fprintf(r.out, "Last: %s (~%d JPY)  Total: %s (~%d JPY) over %d images\n",
		c.Last, c.Last.ToJPY(rate), c.Total, c.Total.ToJPY(rate), c.Count)
}

func (r *repl) printSettings() {
	s := r.session.Settings()
	key := "(not set)"
	if s.APIKey != "" {
		key = logger.MaskSecret(s.APIKey)
	}
	fmt.Fprintf(r.out, "API key:      %s\n", key)
	fmt.Fprintf(r.out, "Aspect ratio: %s\n", s.AspectRatio)
	fmt.Fprintf(r.out, "Resolution:   %s\n", s.Resolution)
	if s.Reference != nil {
		fmt.Fprintf(r.out, "Reference:    %s (%s, %d bytes)\n", s.Reference.Name, s.Reference.MIMEType, s.Reference.Size)
	} else {
		fmt.Fprintln(r.out, "Reference:    (none)")
	}
}

// historyIndex parses a 1-based index argument into a 0-based one.
func historyIndex(args []string) (int, error) {
	if len(args) == 0 {
		return 0, errors.New("usage: /show <n>")
	}
	n, err := strconv.Atoi(args[0])
	if err != nil {
		return 0, fmt.Errorf("invalid index %q", args[0])
	}
	if n < 1 {
		return 0, fmt.Errorf("%w: %d (entries start at 1)", nanobanana.ErrHistoryIndex, n)
	}
	return n - 1, nil
}
