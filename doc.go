// Package tabiter provides name-addressed, typed access to the attributes of
// a columnar table, with lazy per-attribute reads and row-by-row appends.
//
// # Quick Start
//
// Filling a table:
//
//	ctx := context.Background()
//	t, _ := tabiter.Open(ctx, "events", tabiter.WithBlobStore(blobstore.NewLocalStore("./data")))
//	defer t.Close()
//
//	for r := range t.Fill(ctx, 1000) {
//		tabiter.Set(r, "energy", rand.Float64())
//		tabiter.Set(r, "hits", []int{1, 2, 3})
//	}
//	if err := t.Err(); err != nil {
//		log.Fatal(err)
//	}
//
// Reading it back:
//
//	t, _ := tabiter.Open(ctx, "events", tabiter.WithBlobStore(bs), tabiter.WithReadOnly(true))
//	for r := range t.Rows() {
//		sum += tabiter.Get[float64](r, "energy")
//	}
//
// # Attribute Cache
//
// Each (name, type) pair accessed through Get, Set and friends gets a slot
// in the table. The slot owns the storage whose address is registered with
// the column, so reads copy straight into it and appends copy straight out of
// it. Lookups probe the slot following the previous hit before scanning, which
// makes a loop body with a fixed access order cost one comparison per access.
//
// Reads are lazy: a column is only read when the loop body asks for it, and
// at most once per row.
//
// # Filling
//
// An attribute set for the first time after rows were already filled gets a
// new column, caught up with default values for the earlier rows. Attributes
// not set in a row are written with their type default. A caller-owned
// address already registered with a column is adopted instead of replaced
// unless WithOverrideAddress is set.
//
// # Errors
//
// Get and Set never fail; they log and fall back to a default. Lookup and Put
// return an *Error whose cause matches the sentinels of this package with
// errors.Is.
package tabiter
