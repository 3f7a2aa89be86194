// Package command parses inbound trigger text into typed registry commands.
package command

import (
	"strconv"
	"strings"

	"github.com/okian/obituary/internal/domain/model"
)

// Wire prefixes recognized at the boundary.
const (
	PrefixAdminRequest = "ADMIN_REQUEST"
	PrefixUserRequest  = "USER_REQUEST"
	PrefixApprove      = "APPROVE"
	PrefixApproveBulk  = "APPROVE_BULK"
	PrefixApproveAll   = "APPROVE_ALL"
	PrefixDelete       = "DELETE"
	PrefixDeleteBulk   = "DELETE_BULK"
	PrefixView         = "VIEW"

	listSeparator = "|"
)

// Command is one of the variants below. The unexported marker keeps the
// set closed so dispatchers can switch over it exhaustively.
type Command interface {
	// Kind is a stable label used in logs and metrics.
	Kind() string
	isCommand()
}

// Add resolves a free-text name and inserts matching deceased people.
type Add struct {
	Role model.Role
	Name string
}

// Approve flips every record with the given display name to approved.
type Approve struct{ Name string }

// ApproveBulk approves each listed name.
type ApproveBulk struct{ Names []string }

// ApproveAll approves every non-sentinel record.
type ApproveAll struct{}

// Delete removes every record matching the name in any of its forms.
type Delete struct{ Name string }

// DeleteBulk removes one matching record per listed name.
type DeleteBulk struct{ Names []string }

// View records an engagement event for a display name.
type View struct {
	Name    string
	Seconds int
}

// Unknown is any text that is not a recognized command. It is a no-op.
type Unknown struct{ Raw string }

func (Add) Kind() string         { return "add" }
func (Approve) Kind() string     { return "approve" }
func (ApproveBulk) Kind() string { return "approve_bulk" }
func (ApproveAll) Kind() string  { return "approve_all" }
func (Delete) Kind() string      { return "delete" }
func (DeleteBulk) Kind() string  { return "delete_bulk" }
func (View) Kind() string        { return "view" }
func (Unknown) Kind() string     { return "unknown" }

func (Add) isCommand()         {}
func (Approve) isCommand()     {}
func (ApproveBulk) isCommand() {}
func (ApproveAll) isCommand()  {}
func (Delete) isCommand()      {}
func (DeleteBulk) isCommand()  {}
func (View) isCommand()        {}
func (Unknown) isCommand()     {}

// Parse maps raw trigger text such as "ADMIN_REQUEST: Maya Angelou" to a
// Command. The prefix is matched as a whole token, so APPROVE never shadows
// APPROVE_BULK or APPROVE_ALL. Commands missing a required payload parse as
// Unknown.
func Parse(raw string) Command {
	text := strings.TrimSpace(raw)
	prefix, payload, _ := strings.Cut(text, ":")
	prefix = strings.ToUpper(strings.TrimSpace(prefix))
	payload = strings.TrimSpace(payload)

	switch prefix {
	case PrefixAdminRequest:
		return add(model.RoleAdmin, payload, raw)
	case PrefixUserRequest:
		return add(model.RoleUser, payload, raw)
	case PrefixApprove:
		if payload == "" {
			return Unknown{Raw: raw}
		}
		return Approve{Name: payload}
	case PrefixApproveBulk:
		names := SplitList(payload)
		if len(names) == 0 {
			return Unknown{Raw: raw}
		}
		return ApproveBulk{Names: names}
	case PrefixApproveAll:
		return ApproveAll{}
	case PrefixDelete:
		if payload == "" {
			return Unknown{Raw: raw}
		}
		return Delete{Name: payload}
	case PrefixDeleteBulk:
		names := SplitList(payload)
		if len(names) == 0 {
			return Unknown{Raw: raw}
		}
		return DeleteBulk{Names: names}
	case PrefixView:
		return view(payload, raw)
	default:
		return Unknown{Raw: raw}
	}
}

func add(role model.Role, name, raw string) Command {
	if name == "" {
		return Unknown{Raw: raw}
	}
	return Add{Role: role, Name: name}
}

// view parses "name | seconds". A missing, malformed or negative duration
// still counts the view, with zero seconds.
func view(payload, raw string) Command {
	name, dur, _ := strings.Cut(payload, listSeparator)
	name = strings.TrimSpace(name)
	if name == "" {
		return Unknown{Raw: raw}
	}
	secs, err := strconv.Atoi(strings.TrimSpace(dur))
	if err != nil || secs < 0 {
		secs = 0
	}
	return View{Name: name, Seconds: secs}
}

// SplitList splits a "|"-delimited payload, trimming entries and dropping
// empty ones. Repeated names are kept: bulk delete removes one record per
// occurrence.
func SplitList(payload string) []string {
	parts := strings.Split(payload, listSeparator)
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
