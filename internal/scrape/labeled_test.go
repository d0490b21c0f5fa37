package scrape

import "testing"

func TestLabeledValueFromRowKeyedTable(t *testing.T) {
	html := `<div id="detail"><table>
		<tr><th>Close Date</th><td>1/30/2024</td></tr>
		<tr><th>Department</th><td>Facilities Management</td></tr>
	</table></div>`
	scope := selectionFrom(t, html, "#detail")

	if v := LabeledValue(scope, "Close Date", "Deadline"); v != "1/30/2024" {
		t.Errorf("close date = %q", v)
	}
	if v := LabeledValue(scope, "Department", "Agency"); v != "Facilities Management" {
		t.Errorf("department = %q", v)
	}
}

func TestLabeledValueFromDefinitionList(t *testing.T) {
	html := `<div id="detail"><dl>
		<dt>Status</dt><dd>Open</dd>
		<dt>Contact Email</dt><dd>buyer@example.gov</dd>
	</dl></div>`
	scope := selectionFrom(t, html, "#detail")

	if v := LabeledValue(scope, "Status"); v != "Open" {
		t.Errorf("status = %q", v)
	}
	if v := LabeledValue(scope, "Email", "Contact Email"); v != "buyer@example.gov" {
		t.Errorf("email = %q", v)
	}
}

func TestLabeledValueFromFreeText(t *testing.T) {
	html := `<div id="detail">
		<p>Close Date: 1/30/2024</p>
		<div><strong>Department</strong><span>Facilities Management</span></div>
	</div>`
	scope := selectionFrom(t, html, "#detail")

	if v := LabeledValue(scope, "Close Date"); v != "1/30/2024" {
		t.Errorf("trailing value = %q", v)
	}
	if v := LabeledValue(scope, "Department"); v != "Facilities Management" {
		t.Errorf("sibling value = %q", v)
	}
}

func TestLabeledValueNeverEchoesLabel(t *testing.T) {
	// The only candidate "value" is one of the labels themselves.
	html := `<div id="detail">
		<p>Close Date</p>
		<p>Deadline</p>
	</div>`
	scope := selectionFrom(t, html, "#detail")
	if v := LabeledValue(scope, "Close Date", "Deadline"); v != "" {
		t.Errorf("label echoed as value: %q", v)
	}
}

func TestLabeledValueEmptyScope(t *testing.T) {
	scope := selectionFrom(t, "<div></div>", "#missing")
	if v := LabeledValue(scope, "Anything"); v != "" {
		t.Errorf("empty scope = %q", v)
	}
	if v := LabeledValue(nil, "Anything"); v != "" {
		t.Errorf("nil scope = %q", v)
	}
}
