// Command genlist builds an item list JSON from the curated markdown item
// table, optionally filtered by keyword and category.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"bdo-market-etl/internal/catalog"
)

func main() {
	input := flag.String("in", "items.md", "Markdown item table to read")
	output := flag.String("out", "item_list.json", "Item list JSON to write")
	keyword := flag.String("keyword", "", "Substring filter on item name")
	mainCat := flag.String("main-category", "", "mainCategory filter")
	subCat := flag.String("sub-category", "", "subCategory filter")
	group := flag.String("group", "accessory", "Catalog group to file the ids under")
	flag.Parse()

	md, err := os.ReadFile(*input)
	if err != nil {
		fmt.Fprintf(os.Stderr, "read %s: %v\n", *input, err)
		os.Exit(1)
	}

	items, err := catalog.ParseMarkdownTable(string(md))
	if err != nil {
		fmt.Fprintf(os.Stderr, "parse %s: %v\n", *input, err)
		os.Exit(1)
	}

	items = catalog.FilterItems(items, catalog.ItemFilter{
		Keyword:      *keyword,
		MainCategory: *mainCat,
		SubCategory:  *subCat,
	})
	if len(items) == 0 {
		fmt.Fprintln(os.Stderr, "no items matched the filters")
		os.Exit(1)
	}

	ids := make([]int, len(items))
	for i, it := range items {
		ids[i] = it.ID
	}
	list := map[string][]int{
		*group: ids,
		"all":  ids,
	}

	data, err := json.MarshalIndent(list, "", "    ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "encode item list: %v\n", err)
		os.Exit(1)
	}
	if err := os.WriteFile(*output, append(data, '\n'), 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "write %s: %v\n", *output, err)
		os.Exit(1)
	}

	fmt.Printf("wrote %d items to %s\n", len(items), *output)
}
