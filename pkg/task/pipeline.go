package task

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"time"

	"reconciled/pkg/clean"
	"reconciled/pkg/engine"
	"reconciled/pkg/matcher"
	"reconciled/pkg/parser"
	"reconciled/pkg/reconerr"
	"reconciled/pkg/report"
	"reconciled/pkg/row"
	"reconciled/pkg/rules"
	"reconciled/pkg/schema"
)

// runPipeline executes C2 through C9 for one task, checking ctx at each
// phase boundary (C2/C3/C5/C6/C7) per the cooperative-cancellation model
// (§5). A fatal error at any stage aborts the whole run; per-row/per-rule
// problems degrade into the returned warning list instead.
func runPipeline(ctx context.Context, t *Task) (report.Artifact, error) {
	s := t.Schema

	if err := ctx.Err(); err != nil {
		return report.Artifact{}, err
	}
	assignment, err := matcher.Classify(t.Files, s)
	if err != nil {
		return report.Artifact{}, err
	}

	if err := ctx.Err(); err != nil {
		return report.Artifact{}, err
	}

	sideRows := make(map[string]row.Rows, len(s.Sides))
	var allWarnings []string

	for _, sideName := range s.SideOrder {
		side := s.Sides[sideName]
		paths := assignment[sideName]

		if len(paths) == 0 {
			if !s.AllowEmptySide {
				return report.Artifact{}, reconerr.New(reconerr.FileUnclassified, fmt.Sprintf("side %q has no assigned files", sideName))
			}
			sideRows[sideName] = row.Rows{}
			continue
		}

		var rows row.Rows
		for _, path := range paths {
			table, err := parser.Read(path, side.Sheet)
			if err != nil {
				return report.Artifact{}, err
			}
			base := filepath.Base(path)
			for _, w := range table.Warnings {
				allWarnings = append(allWarnings, fmt.Sprintf("%s:%d: %s", base, w.Row, w.Message))
			}

			if _, err := schema.ResolveKeyRole(s, sideName, side, table.Headers); err != nil {
				return report.Artifact{}, err
			}
			for header, suggested := range schema.SuggestAliasesForUnclaimed(side, table.Headers) {
				allWarnings = append(allWarnings, fmt.Sprintf("%s.%s: column %q is unclaimed but resembles role(s) %v", sideName, base, header, suggested))
			}

			canon := schema.Canonicalize(side, table)

			// Non-aggregating cleaning rules run per source file, before
			// concatenation, so a rule's optional file_pattern is matched
			// against the file that actually produced each row.
			// aggregate_duplicates runs once below, after every file's rows
			// are merged, so duplicates split across files still collapse.
			cleaned, warns := clean.ApplyPerFile(canon, s.CleaningRules[sideName], base, s.Tolerance.DateFormat)
			for _, w := range warns {
				allWarnings = append(allWarnings, fmt.Sprintf("%s.%s (%s): %s", sideName, w.Role, base, w.Message))
			}
			rows = append(rows, cleaned...)
		}

		rows = clean.Aggregate(rows, s.CleaningRules[sideName])
		rows, discardWarns := clean.DiscardUnkeyed(rows, s.KeyRole)
		for _, w := range discardWarns {
			allWarnings = append(allWarnings, fmt.Sprintf("%s.%s: %s", sideName, w.Role, w.Message))
		}
		sideRows[sideName] = rows
	}

	if err := ctx.Err(); err != nil {
		return report.Artifact{}, err
	}

	businessRows := sideRows["business"]
	financeRows := sideRows["finance"]
	joined := engine.Join(businessRows, financeRows, s.KeyRole, s.Tolerance)

	if err := ctx.Err(); err != nil {
		return report.Artifact{}, err
	}

	evaluated := rules.Evaluate(s, joined, s.KeyRole)

	fileAssignments := make(map[string][]string, len(assignment))
	for side, paths := range assignment {
		bases := make([]string, len(paths))
		for i, p := range paths {
			bases[i] = filepath.Base(p)
		}
		sort.Strings(bases)
		fileAssignments[side] = bases
	}

	artifact := report.Build(t.ID, s, joined, evaluated, fileAssignments, time.Now().UTC())
	artifact.Metadata.Warnings = append(artifact.Metadata.Warnings, allWarnings...)

	return artifact, nil
}
