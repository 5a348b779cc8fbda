package schema

import (
	"sort"
	"strings"

	"reconciled/pkg/reconerr"
)

// ResolveColumnRoles builds the header -> role map for one side's header
// row (C4). For each declared role (processed in a fixed, sorted order so
// results are deterministic when two roles' alias lists collide on the
// same header), the first alias that equals a header column exactly
// (case-sensitive, after trimming both sides) claims that column.
// Unclaimed headers are simply absent from the returned map; callers
// preserve them under their original header, per spec.
func ResolveColumnRoles(side *Side, headers []string) map[string]string {
	trimmedHeaders := make([]string, len(headers))
	for i, h := range headers {
		trimmedHeaders[i] = strings.TrimSpace(h)
	}

	roles := make([]string, 0, len(side.FieldRoles))
	for role := range side.FieldRoles {
		roles = append(roles, role)
	}
	sort.Strings(roles)

	result := make(map[string]string, len(roles))
	claimed := make(map[string]bool, len(trimmedHeaders))

	for _, role := range roles {
		for _, alias := range side.FieldRoles[role] {
			aliasTrimmed := strings.TrimSpace(alias)
			found := false
			for i, h := range trimmedHeaders {
				if claimed[headers[i]] {
					continue
				}
				if h == aliasTrimmed {
					result[headers[i]] = role
					claimed[headers[i]] = true
					found = true
					break
				}
			}
			if found {
				break
			}
		}
	}

	return result
}

// ResolveKeyRole resolves the key role's column for side and fails with
// KeyRoleUnresolved if no alias matched any header.
func ResolveKeyRole(schema *Schema, sideName string, side *Side, headers []string) (string, error) {
	columnRoles := ResolveColumnRoles(side, headers)
	for header, role := range columnRoles {
		if role == schema.KeyRole {
			return header, nil
		}
	}
	return "", reconerr.New(reconerr.KeyRoleUnresolved, sideName)
}

// normalizeHeader lowercases a header and strips whitespace/underscore/
// hyphen separators, the same canonicalization the teacher repo used for
// its fuzzy header inference — reused here only for suggesting aliases,
// never for authoritative role resolution (which is always exact-match
// per C4's contract).
func normalizeHeader(header string) string {
	s := strings.ToLower(strings.TrimSpace(header))
	s = strings.NewReplacer(" ", "", "_", "", "-", "").Replace(s)
	return s
}

// SuggestAliasesForUnclaimed inspects headers that no declared role
// claimed and, for each declared role name, flags unclaimed headers whose
// normalized form contains the normalized role name as a substring. This
// is a diagnostic aid surfaced as a metadata warning — it never changes
// which columns are canonical, only helps a schema author notice a
// probably-missing alias declaration.
func SuggestAliasesForUnclaimed(side *Side, headers []string) map[string][]string {
	claimed := ResolveColumnRoles(side, headers)
	roleNames := make([]string, 0, len(side.FieldRoles))
	for role := range side.FieldRoles {
		roleNames = append(roleNames, role)
	}
	sort.Strings(roleNames)

	suggestions := make(map[string][]string)
	for _, h := range headers {
		if _, ok := claimed[h]; ok {
			continue
		}
		normalized := normalizeHeader(h)
		if normalized == "" {
			continue
		}
		for _, role := range roleNames {
			normalizedRole := normalizeHeader(role)
			if normalizedRole != "" && strings.Contains(normalized, normalizedRole) {
				suggestions[h] = append(suggestions[h], role)
			}
		}
	}
	return suggestions
}
