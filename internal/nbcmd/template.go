// Package nbcmd implements command-string interpolation for rule
// actions: an action's command may contain `${expr}` splices evaluated
// against the current term bindings (nbrule expands only the command
// string, never assertion values). Each splice is compiled with
// expr.Compile and expr.AsAny, with no environment at compile time; the
// binding map is passed when the program runs. Compiled programs are
// cached by source text.
//
// This is strictly an ambient templating convenience layered on top of
// the cell graph: the three-valued condition language itself is never
// expressed through expr-lang (see DESIGN.md for why a general-purpose
// expression evaluator cannot host Unknown-propagation, hash-consing
// identity, or the BFI time algebra).
package nbcmd

import (
	"fmt"
	"regexp"
	"sync"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

var splicePattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// Processor expands `${expr}` splices in a command or assertion literal
// against a binding environment, caching compiled programs by source
// text.
type Processor struct {
	mu    sync.Mutex
	cache map[string]*vm.Program
}

// NewProcessor creates an empty-cache Processor.
func NewProcessor() *Processor {
	return &Processor{cache: make(map[string]*vm.Program)}
}

func (p *Processor) compile(source string) (*vm.Program, error) {
	p.mu.Lock()
	if prog, ok := p.cache[source]; ok {
		p.mu.Unlock()
		return prog, nil
	}
	p.mu.Unlock()

	prog, err := expr.Compile(source, expr.AsAny())
	if err != nil {
		return nil, err
	}

	p.mu.Lock()
	p.cache[source] = prog
	p.mu.Unlock()
	return prog, nil
}

// Expand replaces every `${expr}` occurrence in command with the
// stringified result of evaluating expr against env. A splice that
// fails to compile or run is left untouched.
func (p *Processor) Expand(command string, env map[string]any) string {
	return splicePattern.ReplaceAllStringFunc(command, func(match string) string {
		source := splicePattern.FindStringSubmatch(match)[1]
		prog, err := p.compile(source)
		if err != nil {
			return match
		}
		out, err := expr.Run(prog, env)
		if err != nil {
			return match
		}
		return fmt.Sprint(out)
	})
}
