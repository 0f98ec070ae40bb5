package solver

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// CBC solves models with the COIN-OR cbc binary
type CBC struct {
	Path   string
	logger *logrus.Logger
}

func NewCBC(path string, logger *logrus.Logger) *CBC {
	if path == "" {
		path = "cbc"
	}
	return &CBC{Path: path, logger: logger}
}

func (c *CBC) Solve(ctx context.Context, m *Model) (*Solution, error) {
	// rows without variables never reach the LP file
	for _, con := range m.Constraints {
		if len(con.Terms) == 0 && !satisfied(0, con.Sense, con.RHS) {
			return &Solution{Status: Infeasible}, nil
		}
	}

	dir, err := os.MkdirTemp("", "cbc-")
	if err != nil {
		return nil, fmt.Errorf("failed to create cbc workdir: %w", err)
	}
	defer os.RemoveAll(dir)

	lpPath := filepath.Join(dir, "model.lp")
	solPath := filepath.Join(dir, "model.sol")

	var buf bytes.Buffer
	if err := WriteLP(&buf, m); err != nil {
		return nil, err
	}
	if err := os.WriteFile(lpPath, buf.Bytes(), 0o600); err != nil {
		return nil, fmt.Errorf("failed to write lp file: %w", err)
	}

	start := time.Now()
	cmd := exec.CommandContext(ctx, c.Path, lpPath, "branch", "printingOptions", "all", "solution", solPath)
	out, err := cmd.CombinedOutput()
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("cbc failed: %w: %s", err, lastLine(out))
	}

	f, err := os.Open(solPath)
	if err != nil {
		return nil, fmt.Errorf("cbc produced no solution file: %w", err)
	}
	defer f.Close()

	sol, err := ParseSolution(f, m)
	if err != nil {
		return nil, err
	}

	c.logger.WithFields(logrus.Fields{
		"variables":   m.NumVars(),
		"constraints": len(m.Constraints),
		"status":      sol.Status.String(),
		"duration_ms": time.Since(start).Milliseconds(),
	}).Debug("cbc solve finished")

	return sol, nil
}

func lastLine(out []byte) string {
	lines := strings.Split(strings.TrimSpace(string(out)), "\n")
	return lines[len(lines)-1]
}

func formatCoef(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func writeExpr(w *bufio.Writer, m *Model, terms []Term) {
	for i, t := range terms {
		coef := t.Coef
		switch {
		case coef < 0:
			w.WriteString(" - ")
			coef = -coef
		case i > 0:
			w.WriteString(" + ")
		default:
			w.WriteString(" ")
		}
		w.WriteString(formatCoef(coef))
		w.WriteString(" ")
		w.WriteString(m.Names[t.Var])
	}
}

// rowName makes a label safe for the LP format; the index prefix keeps it unique
func rowName(i int, label string) string {
	var b strings.Builder
	b.WriteString("c")
	b.WriteString(strconv.Itoa(i))
	b.WriteString("_")
	for _, r := range label {
		if r < 128 && (r == '_' || r >= '0' && r <= '9' || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z') {
			b.WriteRune(r)
		} else {
			b.WriteRune('_')
		}
		if b.Len() >= 200 {
			break
		}
	}
	return b.String()
}

// WriteLP writes m in CPLEX LP format
func WriteLP(out io.Writer, m *Model) error {
	w := bufio.NewWriter(out)

	w.WriteString("Maximize\n obj:")
	obj := make([]Term, 0, m.NumVars())
	for i, coef := range m.Objective {
		obj = append(obj, Term{Var: i, Coef: coef})
	}
	writeExpr(w, m, obj)
	w.WriteString("\nSubject To\n")

	for i, c := range m.Constraints {
		if len(c.Terms) == 0 {
			continue
		}
		fmt.Fprintf(w, " %s:", rowName(i, c.Label))
		writeExpr(w, m, c.Terms)
		fmt.Fprintf(w, " %s %s\n", c.Sense, formatCoef(c.RHS))
	}

	w.WriteString("Binaries\n")
	for i, name := range m.Names {
		if i%10 == 0 {
			w.WriteString(" ")
		}
		w.WriteString(name)
		if i%10 == 9 || i == len(m.Names)-1 {
			w.WriteString("\n")
		} else {
			w.WriteString(" ")
		}
	}
	w.WriteString("End\n")

	if err := w.Flush(); err != nil {
		return fmt.Errorf("failed to write lp model: %w", err)
	}
	return nil
}

// ParseSolution reads a cbc solution file. The first line carries the status;
// following lines are "index name value reduced-cost", possibly prefixed by "**".
func ParseSolution(r io.Reader, m *Model) (*Solution, error) {
	scanner := bufio.NewScanner(r)
	if !scanner.Scan() {
		return nil, fmt.Errorf("empty cbc solution")
	}
	header := strings.TrimSpace(scanner.Text())
	lower := strings.ToLower(header)
	switch {
	case strings.HasPrefix(lower, "optimal"):
	case strings.Contains(lower, "infeasible"):
		return &Solution{Status: Infeasible}, nil
	default:
		return nil, fmt.Errorf("unexpected cbc status %q", header)
	}

	index := make(map[string]int, m.NumVars())
	for i, name := range m.Names {
		index[name] = i
	}

	values := make([]float64, m.NumVars())
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) > 0 && fields[0] == "**" {
			fields = fields[1:]
		}
		if len(fields) < 3 {
			continue
		}
		i, ok := index[fields[1]]
		if !ok {
			continue
		}
		v, err := strconv.ParseFloat(fields[2], 64)
		if err != nil {
			return nil, fmt.Errorf("bad value for %s: %w", fields[1], err)
		}
		values[i] = v
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read cbc solution: %w", err)
	}

	return &Solution{Status: Optimal, Values: values, Objective: m.Value(values)}, nil
}
