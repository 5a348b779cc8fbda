package predicate

import (
	"testing"

	"reconciled/pkg/row"
)

func TestRenderTemplateSideQualifiedAndBare(t *testing.T) {
	business := row.Row{"amount": row.Number(100), "Ref Col": row.String("R-1")}
	finance := row.Row{"amount": row.Number(105)}

	got := RenderTemplate("business={business.amount} finance={finance.amount} bare={amount}", business, finance)
	want := "business=100 finance=105 bare=100"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestRenderTemplateUnknownPlaceholderIsLiteral(t *testing.T) {
	got := RenderTemplate("value={nonexistent}", row.Row{}, row.Row{})
	if got != "value={nonexistent}" {
		t.Errorf("got %q", got)
	}
}

func TestRenderTemplateNullFormatsEmpty(t *testing.T) {
	got := RenderTemplate("note=[{business.memo}]", row.Row{"memo": row.Null}, row.Row{})
	if got != "note=[]" {
		t.Errorf("got %q", got)
	}
}
