package scheduler

import (
	"bufio"
	"fmt"
	"os"

	"github.com/procscheduler/goscheduler/pkg/csp"
)

// writeDebugDump renders model as plain text: one line per variable's
// domain, then one line per constraint's String(). It is a debugging aid
// only, not a parseable exchange format (see ExportDebug's doc comment).
func writeDebugDump(path, problemName string, model *csp.Model) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	fmt.Fprintf(w, "; debug dump of problem %q (not SMT-LIB2)\n", problemName)
	fmt.Fprintf(w, "; %d variables, %d constraints\n\n", len(model.Variables()), len(model.Constraints()))

	fmt.Fprintln(w, "; variables")
	for _, v := range model.Variables() {
		fmt.Fprintf(w, "%s\n", v.String())
	}

	fmt.Fprintln(w, "\n; constraints")
	for _, c := range model.Constraints() {
		fmt.Fprintf(w, "(%s) %s\n", c.Type(), c.String())
	}

	return w.Flush()
}

// logModel emits a debug-level summary of the assembled model's size.
func (p *Problem) logModel() {
	p.log.Debug().
		Str("problem", p.Name).
		Int("variables", len(p.sp.Model.Variables())).
		Int("constraints", len(p.sp.Model.Constraints())).
		Msg("assembled model")
}
