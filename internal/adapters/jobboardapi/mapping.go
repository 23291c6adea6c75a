package jobboardapi

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	jmespath "github.com/jmespath-community/go-jmespath"
	"github.com/target/jobboard-ui-api/config"
	domainauth "github.com/target/jobboard-ui-api/internal/domain/auth"
	"github.com/target/jobboard-ui-api/internal/ports"
)

type searcher interface {
	Search(data any) (any, error)
}

// Mapping holds compiled JMESPath expressions that pull account fields out of backend payloads.
// A nil expression leaves its field empty.
type Mapping struct {
	userID, role, email, name, avatar, saved, token, message searcher
}

// CompileMapping compiles every expression of cfg. The user id expression is required.
func CompileMapping(cfg config.BackendMappingConfig) (*Mapping, error) {
	if strings.TrimSpace(cfg.UserID) == "" {
		return nil, errors.New("user id expression is required")
	}

	m := &Mapping{}
	fields := []struct {
		name string
		expr string
		dst  *searcher
	}{
		{"user_id", cfg.UserID, &m.userID},
		{"role", cfg.Role, &m.role},
		{"email", cfg.Email, &m.email},
		{"name", cfg.Name, &m.name},
		{"avatar_url", cfg.AvatarURL, &m.avatar},
		{"saved", cfg.Saved, &m.saved},
		{"token", cfg.Token, &m.token},
		{"message", cfg.Message, &m.message},
	}
	var errs []error
	for _, f := range fields {
		expr := strings.TrimSpace(f.expr)
		if expr == "" {
			continue
		}
		compiled, err := jmespath.Compile(expr)
		if err != nil {
			errs = append(errs, fmt.Errorf("compile %s expression %q: %w", f.name, expr, err))
			continue
		}
		*f.dst = compiled
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return m, nil
}

// Account extracts an account from a decoded JSON payload.
// Saved stays nil when the payload carries no saved list.
func (m *Mapping) Account(payload any) (ports.Account, error) {
	acct := ports.Account{
		UserID:    m.str(m.userID, payload),
		Role:      domainauth.Role(m.str(m.role, payload)),
		Email:     m.str(m.email, payload),
		Name:      m.str(m.name, payload),
		AvatarURL: m.str(m.avatar, payload),
		Token:     m.str(m.token, payload),
	}
	if m.saved != nil {
		v, err := m.saved.Search(payload)
		if err != nil {
			return ports.Account{}, fmt.Errorf("map saved: %w", err)
		}
		saved, err := stringList(v)
		if err != nil {
			return ports.Account{}, fmt.Errorf("map saved: %w", err)
		}
		acct.Saved = saved
	}
	return acct, nil
}

// Message extracts a human-readable error message, or "" when the payload has none.
func (m *Mapping) Message(payload any) string {
	return m.str(m.message, payload)
}

func (m *Mapping) str(expr searcher, payload any) string {
	if expr == nil || payload == nil {
		return ""
	}
	v, err := expr.Search(payload)
	if err != nil {
		return ""
	}
	switch s := v.(type) {
	case string:
		return strings.TrimSpace(s)
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	default:
		return ""
	}
}

func stringList(v any) ([]string, error) {
	if v == nil {
		return nil, nil
	}
	items, ok := v.([]any)
	if !ok {
		return nil, fmt.Errorf("expected a list, got %T", v)
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		switch id := item.(type) {
		case string:
			out = append(out, id)
		case map[string]any:
			// Populated references carry the id inside the document.
			if s, ok := id["_id"].(string); ok {
				out = append(out, s)
			} else if s, ok := id["id"].(string); ok {
				out = append(out, s)
			}
		}
	}
	return out, nil
}
