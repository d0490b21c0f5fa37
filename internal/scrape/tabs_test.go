package scrape

import (
	"context"
	"strings"
	"testing"
)

const tabbedDetailHTML = `<html><body>
<ul class="nav-tabs">
	<li class="active"><a href="#summary" data-toggle="tab">Summary</a></li>
	<li><a href="#questions" data-toggle="tab">Questions</a></li>
	<li><button data-tab="broken">Broken</button></li>
	<li><a href="#questions" data-toggle="tab">Questions</a></li>
</ul>
<div class="tab-content">
	<div id="summary" class="tab-pane active">General sealed bid for roof replacement.</div>
	<div id="questions" class="tab-pane">
		<table><tr><th>Question Deadline</th><td>1/20/2024</td></tr></table>
	</div>
</div>
</body></html>`

func TestHarvestTabs(t *testing.T) {
	page, err := ParsePage("https://example.gov/bid/1001", tabbedDetailHTML)
	if err != nil {
		t.Fatalf("ParsePage: %v", err)
	}

	tabs := HarvestTabs(context.Background(), page)
	if tabs == nil {
		t.Fatal("HarvestTabs returned nil")
	}
	if len(tabs) != 2 {
		t.Fatalf("tabs = %v, want Summary and Questions only", tabs)
	}
	if !strings.Contains(tabs["Summary"], "roof replacement") {
		t.Errorf("Summary = %q", tabs["Summary"])
	}
	if !strings.Contains(tabs["Questions"], "Question Deadline: 1/20/2024") {
		t.Errorf("Questions = %q, want structured row text", tabs["Questions"])
	}
	if _, ok := tabs["Broken"]; ok {
		t.Error("unaddressable tab must be absent, not empty")
	}
}

func TestHarvestTabsNoControls(t *testing.T) {
	page, err := ParsePage("https://example.gov/bid/1", "<html><body><p>plain page</p></body></html>")
	if err != nil {
		t.Fatalf("ParsePage: %v", err)
	}
	if tabs := HarvestTabs(context.Background(), page); tabs != nil {
		t.Errorf("tabs = %v, want nil", tabs)
	}
}
