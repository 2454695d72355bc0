package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/agbru/parreduce/internal/orchestration"
	"github.com/agbru/parreduce/internal/ui"
	"github.com/agbru/parreduce/internal/workload"
)

// REPLConfig holds configuration for the interactive session.
type REPLConfig struct {
	// Timeout is the maximum duration of each run command.
	Timeout time.Duration
	// Options are the shared run resources (logger, metrics, pool).
	Options orchestration.Options
	// Verbose is forwarded to the presenter.
	Verbose bool
}

// paramField is one prompted lab parameter.
type paramField struct {
	name   string
	prompt string
	get    func(*workload.Params) string
	set    func(*workload.Params, string) error
}

func intField(name, prompt string, ptr func(*workload.Params) *int) paramField {
	return paramField{
		name:   name,
		prompt: prompt,
		get:    func(p *workload.Params) string { return strconv.Itoa(*ptr(p)) },
		set: func(p *workload.Params, s string) error {
			v, err := strconv.Atoi(s)
			if err != nil {
				return fmt.Errorf("%q is not an integer", s)
			}
			*ptr(p) = v
			return nil
		},
	}
}

func floatField(name, prompt string, ptr func(*workload.Params) *float64) paramField {
	return paramField{
		name:   name,
		prompt: prompt,
		get:    func(p *workload.Params) string { return strconv.FormatFloat(*ptr(p), 'g', -1, 64) },
		set: func(p *workload.Params, s string) error {
			v, err := strconv.ParseFloat(s, 64)
			if err != nil {
				return fmt.Errorf("%q is not a number", s)
			}
			*ptr(p) = v
			return nil
		},
	}
}

var (
	workersField = intField("workers", "Number of workers", func(p *workload.Params) *int { return &p.Workers })
	policyField  = paramField{
		name:   "policy",
		prompt: "Partitioning policy (block, strided or default)",
		get: func(p *workload.Params) string {
			if p.Policy == "" {
				return "default"
			}
			return p.Policy
		},
		set: func(p *workload.Params, s string) error {
			if strings.EqualFold(s, "default") {
				s = ""
			}
			p.Policy = s
			return nil
		},
	}
	funcField = paramField{
		name:   "func",
		prompt: "Function (name or number)",
		get:    func(p *workload.Params) string { return p.Func },
		set: func(p *workload.Params, s string) error {
			if _, err := workload.LookupIntegrand(s); err != nil {
				return err
			}
			p.Func = s
			return nil
		},
	}
)

// labFields lists the parameters prompted for each lab, in prompt order.
var labFields = map[string][]paramField{
	"colmax": {
		intField("rows", "Matrix rows", func(p *workload.Params) *int { return &p.Rows }),
		intField("cols", "Matrix columns", func(p *workload.Params) *int { return &p.Cols }),
	},
	"diagmax": {
		intField("size", "Matrix size", func(p *workload.Params) *int { return &p.Size }),
	},
	"rect": {
		funcField,
		floatField("a", "Lower limit a", func(p *workload.Params) *float64 { return &p.A }),
		floatField("b", "Upper limit b", func(p *workload.Params) *float64 { return &p.B }),
		intField("intervals", "Number of intervals", func(p *workload.Params) *int { return &p.Intervals }),
	},
	"simpson": {
		floatField("lower", "Lower limit (upper limit is 1)", func(p *workload.Params) *float64 { return &p.Lower }),
		intField("intervals", "Number of intervals (even)", func(p *workload.Params) *int { return &p.Intervals }),
		floatField("precision", "Series precision", func(p *workload.Params) *float64 { return &p.Precision }),
	},
	"digits": {
		intField("strings", "Number of strings", func(p *workload.Params) *int { return &p.Strings }),
		intField("length", "Length of each string", func(p *workload.Params) *int { return &p.Length }),
	},
	"shoelace": {
		intField("vertices", "Polygon vertices", func(p *workload.Params) *int { return &p.Vertices }),
	},
	"series": {
		intField("terms", "Number of terms", func(p *workload.Params) *int { return &p.Terms }),
	},
}

// REPL is an interactive session that prompts for lab parameters and runs
// labs one at a time.
type REPL struct {
	config   REPLConfig
	registry *workload.Registry
	params   workload.Params
	in       io.Reader
	out      io.Writer
	reader   *bufio.Reader
}

// NewREPL creates a new interactive session starting from params.
func NewREPL(registry *workload.Registry, params workload.Params, config REPLConfig) *REPL {
	return &REPL{
		config:   config,
		registry: registry,
		params:   params,
		in:       os.Stdin,
		out:      os.Stdout,
	}
}

// SetInput sets a custom input reader (useful for testing).
func (r *REPL) SetInput(in io.Reader) {
	r.in = in
}

// SetOutput sets a custom output writer (useful for testing).
func (r *REPL) SetOutput(out io.Writer) {
	r.out = out
}

// Params returns the current session parameters.
func (r *REPL) Params() workload.Params { return r.params }

// Start reads commands until "exit", EOF or cancellation of ctx. It returns
// the exit status of the last run command.
func (r *REPL) Start(ctx context.Context) int {
	r.reader = bufio.NewReader(r.in)
	r.printBanner()
	r.printHelp()
	fmt.Fprintln(r.out)

	status := 0
	for ctx.Err() == nil {
		fmt.Fprint(r.out, ui.ColorGreen()+"parreduce> "+ui.ColorReset())

		input, err := r.readLine()
		if err != nil {
			if errors.Is(err, io.EOF) {
				fmt.Fprintln(r.out, "\nGoodbye!")
				return status
			}
			fmt.Fprintf(r.out, "%sRead error: %v%s\n", ui.ColorRed(), err, ui.ColorReset())
			continue
		}
		if input == "" {
			continue
		}

		code, ok := r.processCommand(ctx, input)
		if !ok {
			return status
		}
		if code >= 0 {
			status = code
		}
	}
	return status
}

func (r *REPL) readLine() (string, error) {
	line, err := r.reader.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// printBanner displays the welcome banner.
func (r *REPL) printBanner() {
	fmt.Fprintf(r.out, "\n%s╔══════════════════════════════════════════════════════════╗%s\n", ui.ColorCyan(), ui.ColorReset())
	fmt.Fprintf(r.out, "%s║%s     %sParallel Reduction Labs - Interactive Mode%s           %s║%s\n",
		ui.ColorCyan(), ui.ColorReset(), ui.ColorBold(), ui.ColorReset(), ui.ColorCyan(), ui.ColorReset())
	fmt.Fprintf(r.out, "%s╚══════════════════════════════════════════════════════════╝%s\n\n", ui.ColorCyan(), ui.ColorReset())
}

// printHelp displays available commands.
func (r *REPL) printHelp() {
	fmt.Fprintf(r.out, "%sAvailable commands:%s\n", ui.ColorBold(), ui.ColorReset())
	fmt.Fprintf(r.out, "  %srun <lab>%s         - Prompt for the lab parameters and run it (%s)\n",
		ui.ColorYellow(), ui.ColorReset(), strings.Join(r.registry.Names(), ", "))
	fmt.Fprintf(r.out, "  %sset <name> <v>%s    - Set a parameter without prompting\n", ui.ColorYellow(), ui.ColorReset())
	fmt.Fprintf(r.out, "  %slist%s              - List available labs\n", ui.ColorYellow(), ui.ColorReset())
	fmt.Fprintf(r.out, "  %sstatus%s            - Display current parameters\n", ui.ColorYellow(), ui.ColorReset())
	fmt.Fprintf(r.out, "  %shelp%s              - Display this help\n", ui.ColorYellow(), ui.ColorReset())
	fmt.Fprintf(r.out, "  %sexit%s / %squit%s       - Exit interactive mode\n", ui.ColorYellow(), ui.ColorReset(), ui.ColorYellow(), ui.ColorReset())
}

// processCommand parses and executes a user command. It returns the exit
// status of a run command (-1 for other commands) and false if the session
// should end.
func (r *REPL) processCommand(ctx context.Context, input string) (int, bool) {
	parts := strings.Fields(input)
	cmd := strings.ToLower(parts[0])
	args := parts[1:]

	switch cmd {
	case "run", "r":
		if len(args) == 0 {
			fmt.Fprintf(r.out, "%sUsage: run <lab>%s\n", ui.ColorRed(), ui.ColorReset())
			return -1, true
		}
		return r.cmdRun(ctx, args[0]), true
	case "set":
		r.cmdSet(args)
	case "list", "ls":
		PrintLabList(r.registry.List(), r.out)
	case "status", "st":
		r.cmdStatus()
	case "help", "h", "?":
		r.printHelp()
	case "exit", "quit", "q":
		fmt.Fprintf(r.out, "%sGoodbye!%s\n", ui.ColorGreen(), ui.ColorReset())
		return -1, false
	default:
		if _, err := r.registry.Get(cmd); err == nil {
			return r.cmdRun(ctx, cmd), true
		}
		fmt.Fprintf(r.out, "%sUnknown command: %s%s\n", ui.ColorRed(), cmd, ui.ColorReset())
		fmt.Fprintf(r.out, "Type %shelp%s to see available commands.\n", ui.ColorYellow(), ui.ColorReset())
	}
	return -1, true
}

// cmdRun prompts for the parameters of the selected labs and runs them.
func (r *REPL) cmdRun(ctx context.Context, name string) int {
	labs, err := r.registry.Select(name)
	if err != nil {
		fmt.Fprintf(r.out, "%s%v%s\n", ui.ColorRed(), err, ui.ColorReset())
		return -1
	}

	fields := []paramField{workersField, policyField}
	seen := map[string]bool{}
	for _, l := range labs {
		for _, f := range labFields[l.Name()] {
			if !seen[f.name] {
				seen[f.name] = true
				fields = append(fields, f)
			}
		}
	}
	for _, f := range fields {
		if err := r.prompt(f); err != nil {
			fmt.Fprintf(r.out, "\n%sInput ended, run aborted.%s\n", ui.ColorYellow(), ui.ColorReset())
			return -1
		}
	}

	runCtx, cancel := context.WithTimeout(ctx, r.config.Timeout)
	defer cancel()

	progressChan := make(chan orchestration.ProgressUpdate, len(labs)*orchestration.ProgressBufferMultiplier)
	var wg sync.WaitGroup
	wg.Add(1)
	go DisplayProgress(&wg, progressChan, len(labs), r.out)

	results := make([]orchestration.LabResult, len(labs))
	for i, l := range labs {
		results[i] = orchestration.RunLab(runCtx, i, l, r.params, r.config.Options, progressChan)
	}
	close(progressChan)
	wg.Wait()

	presenter := CLIResultPresenter{Verbose: r.config.Verbose}
	return orchestration.AnalyzeResults(results, orchestration.AnalysisOptions{}, presenter, presenter, r.out)
}

// prompt asks for one field until the answer is accepted. An empty answer
// keeps the current value. It fails only when input ends.
func (r *REPL) prompt(f paramField) error {
	if f.name == "func" {
		for i, fn := range workload.Integrands() {
			fmt.Fprintf(r.out, "  %d. %s\n", i+1, fn.Name)
		}
	}
	for {
		fmt.Fprintf(r.out, "%s [%s%s%s]: ", f.prompt, ui.ColorCyan(), f.get(&r.params), ui.ColorReset())
		answer, err := r.readLine()
		if err != nil {
			return err
		}
		if answer == "" {
			return nil
		}
		if err := f.set(&r.params, answer); err != nil {
			fmt.Fprintf(r.out, "%sInvalid value: %v%s\n", ui.ColorRed(), err, ui.ColorReset())
			continue
		}
		return nil
	}
}

// cmdSet handles the "set" command.
func (r *REPL) cmdSet(args []string) {
	if len(args) != 2 {
		fmt.Fprintf(r.out, "%sUsage: set <name> <value>%s\n", ui.ColorRed(), ui.ColorReset())
		return
	}
	f, ok := r.field(args[0])
	if !ok {
		fmt.Fprintf(r.out, "%sUnknown parameter: %s%s\n", ui.ColorRed(), args[0], ui.ColorReset())
		return
	}
	if err := f.set(&r.params, args[1]); err != nil {
		fmt.Fprintf(r.out, "%sInvalid value: %v%s\n", ui.ColorRed(), err, ui.ColorReset())
		return
	}
	fmt.Fprintf(r.out, "%s = %s%s%s\n", f.name, ui.ColorCyan(), f.get(&r.params), ui.ColorReset())
}

func (r *REPL) field(name string) (paramField, bool) {
	name = strings.ToLower(name)
	for _, f := range []paramField{workersField, policyField} {
		if f.name == name {
			return f, true
		}
	}
	for _, lab := range r.registry.Names() {
		for _, f := range labFields[lab] {
			if f.name == name {
				return f, true
			}
		}
	}
	return paramField{}, false
}

// cmdStatus displays the current parameters of every lab.
func (r *REPL) cmdStatus() {
	fmt.Fprintf(r.out, "%sCurrent parameters:%s\n", ui.ColorBold(), ui.ColorReset())
	fmt.Fprintf(r.out, "  workers: %s, policy: %s, timeout: %s\n",
		workersField.get(&r.params), policyField.get(&r.params), r.config.Timeout)
	for _, lab := range r.registry.Names() {
		fields := labFields[lab]
		if len(fields) == 0 {
			continue
		}
		pairs := make([]string, len(fields))
		for i, f := range fields {
			pairs[i] = f.name + "=" + f.get(&r.params)
		}
		fmt.Fprintf(r.out, "  %s%s%s: %s\n", ui.ColorGreen(), lab, ui.ColorReset(), strings.Join(pairs, " "))
	}
}
