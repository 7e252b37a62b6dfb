package lineage_test

import (
	"fmt"

	"github.com/matzehuels/lineageview/pkg/lineage"
)

func ExampleDataset_Relations() {
	ds := &lineage.Dataset{
		UpstreamEntities: []lineage.Entity{
			{Key: "raw.orders"},
			{Key: "stg.orders", Parent: "raw.orders"},
		},
		DownstreamEntities: []lineage.Entity{
			{Key: "mart.revenue", Parent: "stg.orders"},
			{Key: "mart.orphan", Parent: "missing"},
		},
	}

	for _, r := range ds.Relations() {
		fmt.Printf("%s -> %s\n", r.Parent, r.Child)
	}
	fmt.Println("dangling:", ds.Dangling())
	// Output:
	// raw.orders -> stg.orders
	// stg.orders -> mart.revenue
	// missing -> mart.orphan
	// dangling: [missing]
}
