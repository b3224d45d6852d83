package nodebrain

import "fmt"

// ANSI colors & styles, reused by DisplayTerm and DisplayStats to color
// success/failure counts.
const (
	colorReset  = "\033[0m"
	colorBlue   = "\033[34m"
	colorCyan   = "\033[36m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorRed    = "\033[31m"
	bold        = "\033[1m"
)

func displayTitle(text string) {
	fmt.Printf("\n%s%s=== %s ===%s\n\n", bold, colorBlue, text, colorReset)
}

func displaySection(text string) {
	fmt.Printf("%s%s%s\n", bold, text, colorReset)
}

func displayKV(label string, value any) {
	fmt.Printf("  %s%-22s%s: %v\n", colorCyan, label, colorReset, value)
}

// valueColor renders an Object with a color matching its truth kind:
// success green, failure red.
func valueColor(o *Object) string {
	switch o {
	case True:
		return colorGreen + o.String() + colorReset
	case False:
		return colorRed + o.String() + colorReset
	case Unknown, Placeholder:
		return colorYellow + o.String() + colorReset
	default:
		return o.String()
	}
}

// DisplayTerm prints one term's cell state and its immediate children,
// the `show TERM` surface command's default rendering. It is a debugging aid, not part of the reaction
// protocol: reading it never touches the cell graph's subscription
// path.
func DisplayTerm(term *Term) {
	displayTitle("Term " + term.Path())
	displaySection("Cell:")
	displayKV("Path", term.Path())
	displayKV("Type", term.Cell.TypeName)
	displayKV("Level", term.Cell.Level)
	displayKV("Enabled", term.Cell.Enabled())
	displayKV("Value", valueColor(term.Cell.Value()))
	displayKV("Subscribers", len(term.Cell.Subscribers()))

	children := term.Children()
	if len(children) == 0 {
		fmt.Println()
		return
	}
	displaySection("\nChildren:")
	for _, child := range children {
		displayKV(child.Name, valueColor(child.Cell.Value()))
	}
	fmt.Println()
}

// DisplayStats prints one React cycle's CycleStats, a debugging
// companion to DisplayTerm for watching Tick's drain volume.
func DisplayStats(stats CycleStats) {
	displayTitle("Cycle Stats")
	displayKV("Cells Evaluated", stats.CellsEvaluated)
	displayKV("Actions Fired", fmt.Sprintf("%s%d%s", colorGreen, stats.ActionsFired, colorReset))
	fmt.Println()
}
