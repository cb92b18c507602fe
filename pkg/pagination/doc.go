// Package pagination walks the gBizINFO search endpoint page by page.
//
// gBizINFO does not report a total page count. The pager therefore keeps
// requesting pages until one comes back shorter than the page size, or
// until the client-side page cap is reached.
//
// Example usage:
//
//	pager := pagination.NewPager(gbizClient, logger)
//	for page, err := range pager.Pages(ctx, filter, "13") {
//		if err != nil {
//			return err // *pagination.FetchError
//		}
//		for _, rec := range page.Records {
//			// write, filter, count
//		}
//	}
//
// Pages are fetched lazily and strictly in order; breaking out of the loop
// stops further requests. A sequence restarts only at page granularity.
package pagination
