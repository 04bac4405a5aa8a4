package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/ikkim/wishlist-backend/internal/app/model"
)

func render(w io.Writer, view *model.WishlistView) {
	fmt.Fprintf(w, "%s (%s)\n", view.Title, view.Slug)
	if len(view.Items) == 0 {
		fmt.Fprintln(w, "  no items yet")
		return
	}
	for _, item := range view.Items {
		fmt.Fprintf(w, "  - %s\n", itemLine(item))
	}
}

// itemLine summarizes an item in either the owner or the public shape.
func itemLine(item model.ItemView) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s [%s] %s", item.Title, item.ID.String()[:8], item.Price)

	switch {
	case item.Status != nil:
		fmt.Fprintf(&b, "  %s", *item.Status)
	case item.IsGroupGift && item.Remaining != nil:
		if item.IsFullyFunded != nil && *item.IsFullyFunded {
			b.WriteString("  fully funded")
		} else {
			fmt.Fprintf(&b, "  %s to go", *item.Remaining)
		}
		names := make([]string, 0, len(item.Contributions))
		for _, c := range item.Contributions {
			names = append(names, fmt.Sprintf("%s %s", c.Name, c.Amount))
		}
		if len(names) > 0 {
			fmt.Fprintf(&b, " (%s)", strings.Join(names, ", "))
		}
	case item.ReservedBy != nil:
		fmt.Fprintf(&b, "  reserved by %s", *item.ReservedBy)
	case !item.IsGroupGift:
		b.WriteString("  available")
	}
	return b.String()
}
