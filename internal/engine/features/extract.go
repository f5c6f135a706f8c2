package features

import (
	"log/slog"
	"strings"
	"time"

	"juparc/internal/engine/parser"
	"juparc/internal/shared/observability"
)

// Extractor runs the scoped counter over code cell sources.
type Extractor struct {
	parser *parser.Parser
}

func NewExtractor(p *parser.Parser) *Extractor {
	if p == nil {
		p = parser.NewParser()
	}
	return &Extractor{parser: p}
}

// ExtractStrict parses and visits source, returning the parse error for
// sources that are not valid Python. checker may be nil, in which case no
// import is considered local.
func (e *Extractor) ExtractStrict(source string, checker LocalityChecker) (*Result, error) {
	start := time.Now()
	observability.CellsParsed.Inc()

	tree, err := e.parser.Parse([]byte(source))
	if err != nil {
		observability.CellParseErrors.Inc()
		return nil, err
	}
	defer tree.Close()

	v := newVisitor(tree.Source, checker)
	v.visit(tree.Root(), ctxLoad)
	v.counters.Others = strings.TrimSpace(v.counters.Others)

	observability.ParsingDuration.Observe(time.Since(start).Seconds())
	return &Result{
		AST:     v.counters,
		Modules: v.modules,
		Names:   v.names,
		IPython: v.shell,
	}, nil
}

// Extract is ExtractStrict with parse failures folded into the
// unparseable sentinel.
func (e *Extractor) Extract(source string, checker LocalityChecker) *Result {
	res, err := e.ExtractStrict(source, checker)
	if err != nil {
		slog.Debug("cell does not parse", "error", err)
		return Unparseable()
	}
	return res
}
