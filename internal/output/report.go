package output

import (
	"fmt"
	"strings"

	"github.com/danielolaszy/jassist/internal/query"
)

type reportView struct {
	Title string `json:"title" yaml:"title"`
	Body  string `json:"body" yaml:"body"`
}

type queryView struct {
	Query     string        `json:"query" yaml:"query"`
	Unbounded bool          `json:"unbounded" yaml:"unbounded"`
	Warnings  []warningView `json:"warnings,omitempty" yaml:"warnings,omitempty"`
}

// Report writes a titled free-text answer, such as a backlog summary.
func (u *UI) Report(title, body string) error {
	v := reportView{Title: title, Body: strings.TrimSpace(body)}
	if u.Format != FormatText {
		return u.encode(v)
	}
	fmt.Fprintf(u.Out, "%s\n\n%s\n", Bold(title), v.Body)
	return nil
}

// Query writes a native query that was built but not run.
func (u *UI) Query(q query.Query) error {
	if u.Format != FormatText {
		v := queryView{Query: q.Native, Unbounded: q.Unbounded}
		for _, w := range q.Warnings {
			v.Warnings = append(v.Warnings, warningView{Kind: string(w.Kind), Message: w.Message})
		}
		return u.encode(v)
	}

	for _, w := range q.Warnings {
		u.Warning("%s", w.Message)
	}
	fmt.Fprintln(u.Out, q.Native)
	return nil
}
