package bills

import (
	"sort"
	"strings"

	"BillTrackerSaas/internal/ingest/headermap"
)

const (
	TeamQS       = "QS Team"
	TeamSite     = "Site Team"
	TeamPIMO     = "PIMO & MIGO/SES Team"
	TeamAccounts = "Accounts Team"

	RoleAdmin = "admin"
)

// teamFields lists the bill paths each team may patch.
var teamFields = map[string][]string{
	TeamQS: {
		"copDetails.date",
		"copDetails.amount",
	},
	TeamSite: {
		"migoDetails.no",
		"migoDetails.date",
		"migoDetails.amount",
		"migoDetails.doneBy",
	},
	TeamPIMO: {
		"sesDetails.no",
		"sesDetails.amount",
		"sesDetails.date",
		"sesDetails.doneBy",
		"pimoMumbai.dateReturnedFromDirector",
	},
	TeamAccounts: {
		"accountsDept.f110Identification",
		"accountsDept.paymentDate",
		"accountsDept.hardCopy",
		"accountsDept.accountsIdentification",
		"accountsDept.paymentAmt",
		"miroDetails.number",
		"miroDetails.date",
		"miroDetails.amount",
	},
}

var roleTeams = map[string]string{
	"qs_site":        TeamQS,
	"qs_mumbai":      TeamQS,
	"site_officer":   TeamSite,
	"site_engineer":  TeamSite,
	"site_incharge":  TeamSite,
	"site_architect": TeamSite,
	"pimo_mumbai":    TeamPIMO,
	"site_pimo":      TeamPIMO,
	"accounts":       TeamAccounts,
}

// FieldKind selects how a patch cell is parsed.
type FieldKind int

const (
	PatchText FieldKind = iota
	PatchDate
	PatchAmount
	PatchHardCopy
)

// PatchField is one header the patch pipeline reads.
type PatchField struct {
	Header string
	Path   string
	Kind   FieldKind
}

// PatchFields is the closed set of patchable columns.
var PatchFields = []PatchField{
	{"COP Dt", "copDetails.date", PatchDate},
	{"COP Amt", "copDetails.amount", PatchAmount},
	{"MIGO no", "migoDetails.no", PatchText},
	{"MIGO Dt", "migoDetails.date", PatchDate},
	{"MIGO Amt", "migoDetails.amount", PatchAmount},
	{"MIGO done by", "migoDetails.doneBy", PatchText},
	{"SES no", "sesDetails.no", PatchText},
	{"SES Amt", "sesDetails.amount", PatchAmount},
	{"SES Dt", "sesDetails.date", PatchDate},
	{"SES done by", "sesDetails.doneBy", PatchText},
	{"Dt ret-PIMO aft approval", "pimoMumbai.dateReturnedFromDirector", PatchDate},
	{"F110 Identification", "accountsDept.f110Identification", PatchText},
	{"Dt of Payment", "accountsDept.paymentDate", PatchDate},
	{"Hard Copy", "accountsDept.hardCopy", PatchHardCopy},
	{"Accts Identification", "accountsDept.accountsIdentification", PatchText},
	{"Payment Amt", "accountsDept.paymentAmt", PatchAmount},
	{"MIRO no", "miroDetails.number", PatchText},
	{"MIRO Dt", "miroDetails.date", PatchDate},
	{"MIRO Amt", "miroDetails.amount", PatchAmount},
}

// patchFieldFor matches a sheet header to a patchable column, first by exact
// spelling then through the bill header table.
func patchFieldFor(header string) (PatchField, bool) {
	norm := headermap.Normalize(header)
	for _, f := range PatchFields {
		if headermap.Normalize(f.Header) == norm {
			return f, true
		}
	}
	if field, ok := headermap.Lookup(header); ok {
		for _, f := range PatchFields {
			if f.Path == field.Path {
				return f, true
			}
		}
	}
	return PatchField{}, false
}

// Restriction is the set of bill paths a caller may patch.
type Restriction struct {
	Team         string
	Unrestricted bool
	Allowed      []string
}

// Allows reports whether path may be written.
func (r Restriction) Allows(path string) bool {
	if r.Unrestricted {
		return true
	}
	for _, p := range r.Allowed {
		if p == path {
			return true
		}
	}
	return false
}

// AllowedFields lists the writable paths; unrestricted callers get every patchable path.
func (r Restriction) AllowedFields() []string {
	if !r.Unrestricted {
		return append(make([]string, 0, len(r.Allowed)), r.Allowed...)
	}
	out := make([]string, 0, len(PatchFields))
	for _, f := range PatchFields {
		out = append(out, f.Path)
	}
	return out
}

// TeamForRole maps a user role to its team, "" if the role has none.
func TeamForRole(role string) string {
	return roleTeams[strings.ToLower(strings.TrimSpace(role))]
}

// Teams returns the known team names, sorted.
func Teams() []string {
	out := make([]string, 0, len(teamFields))
	for t := range teamFields {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// ResolveRestriction picks the caller's restriction. Only the admin role is
// unrestricted. A role that maps to a team pins the caller to that team; the
// requested team (or a role name passed as team) applies only to roles
// without one. Anything unknown may write nothing.
func ResolveRestriction(team, role string) Restriction {
	if strings.EqualFold(strings.TrimSpace(role), RoleAdmin) {
		return Restriction{Unrestricted: true}
	}
	name := TeamForRole(role)
	if name == "" {
		name = strings.TrimSpace(team)
		if mapped := TeamForRole(name); mapped != "" {
			name = mapped
		}
	}
	for t, fields := range teamFields {
		if strings.EqualFold(t, name) {
			return Restriction{Team: t, Allowed: append([]string(nil), fields...)}
		}
	}
	return Restriction{Team: name, Allowed: []string{}}
}
