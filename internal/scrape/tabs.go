package scrape

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// tabControlSelector enumerates the markup shapes tab controls show up in
// across portal frameworks.
const tabControlSelector = "[role='tab'], ul.nav-tabs li a, a[data-toggle='tab'], a[data-tab], button[data-tab]"

// HarvestTabs enumerates the tab controls on a page, activates each one and
// harvests the now-visible panel content. The result maps tab name to
// content; tabs whose name cannot be determined or whose activation fails
// are simply absent — never nil placeholders. Nothing here aborts the
// caller: every failure degrades to a skipped tab.
func HarvestTabs(ctx context.Context, page Page) map[string]string {
	root := page.Root()
	controls := root.Find(tabControlSelector)
	if controls.Length() == 0 {
		return nil
	}

	out := make(map[string]string, controls.Length())
	controls.Each(func(i int, control *goquery.Selection) {
		name := tabName(control)
		if name == "" {
			return
		}
		if _, dup := out[name]; dup {
			return
		}

		if !tabIsActive(control) {
			clickSel := tabClickSelector(control)
			if clickSel == "" {
				return
			}
			if err := page.Click(clickSel); err != nil {
				log.Printf("[tabs] skipping %q: %v", name, err)
				return
			}
			if err := page.WaitIdle(ctx); err != nil {
				return
			}
		}

		panel := tabPanel(page.Root(), control, i)
		content := cleanText(StructuredText(panel))
		if content == "" {
			return
		}
		out[name] = content
	})

	if len(out) == 0 {
		return nil
	}
	return out
}

// tabName resolves a display name for a control: rendered text, explicit
// name attribute, accessible label, element id — in that priority.
func tabName(control *goquery.Selection) string {
	if v := cleanText(control.Text()); v != "" {
		return v
	}
	if v, ok := control.Attr("name"); ok && cleanText(v) != "" {
		return cleanText(v)
	}
	if v, ok := control.Attr("aria-label"); ok && cleanText(v) != "" {
		return cleanText(v)
	}
	if v, ok := control.Attr("id"); ok && cleanText(v) != "" {
		return cleanText(v)
	}
	return ""
}

func tabIsActive(control *goquery.Selection) bool {
	if v, ok := control.Attr("aria-selected"); ok && strings.EqualFold(v, "true") {
		return true
	}
	return control.HasClass("active") || control.Parent().HasClass("active")
}

// tabClickSelector builds an addressable selector for the control so the
// accessor can activate it. Controls with no stable address are skipped.
func tabClickSelector(control *goquery.Selection) string {
	if id, ok := control.Attr("id"); ok && id != "" {
		return "#" + id
	}
	if href, ok := control.Attr("href"); ok && strings.HasPrefix(href, "#") && len(href) > 1 {
		return fmt.Sprintf("a[href='%s']", href)
	}
	if target, ok := control.Attr("aria-controls"); ok && target != "" {
		return fmt.Sprintf("[aria-controls='%s']", target)
	}
	return ""
}

// tabPanel finds the content panel a control reveals: aria-controls target,
// then fragment href target, then the i-th generic tab pane.
func tabPanel(root, control *goquery.Selection, idx int) *goquery.Selection {
	if target, ok := control.Attr("aria-controls"); ok && target != "" {
		if panel := root.Find("#" + target); panel.Length() > 0 {
			return panel
		}
	}
	if href, ok := control.Attr("href"); ok && strings.HasPrefix(href, "#") && len(href) > 1 {
		if panel := root.Find(href); panel.Length() > 0 {
			return panel
		}
	}
	panes := root.Find("[role='tabpanel'], div.tab-pane, div.tab-content > div")
	if idx < panes.Length() {
		return panes.Eq(idx)
	}
	return panes.First()
}
