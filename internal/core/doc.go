// Package core is the application layer of the textbook fund service. It is
// shared by the HTTP server and the command line tool and knows nothing
// about either.
//
// # Import Kinds
//
// Each spreadsheet import is registered as an [ImportKind] at init time.
// A kind names its group, whether it needs a target building or academic
// year, the blank template offered for download and the importer call that
// runs it:
//
//	core.Register(core.ImportKind{
//	    Key:       importer.KindFutureClasses,
//	    Group:     core.GroupEnrollment,
//	    NeedsYear: true,
//	    Template:  &schema.FutureClasses,
//	    Run:       runFutureClasses,
//	})
//
// # Service
//
// [Service.Import] bounds concurrency with an [ImportLimiter], applies the
// upload timeout and records every call as an import run, successful or
// not. Reconciliation, planning and inventory resolve free-form building
// codes ("Корпус 3", "сп3") before delegating to the recon and inventory
// packages.
//
// # Error Handling
//
// Technical errors are mapped to user-facing messages by [MapError]. Each
// category has a code for support reference:
//
//   - IMP001-IMP006: import failures (header, building, workbook, year)
//   - INV001-INV003: write-off failures
//   - DB001-DB007: database errors
//   - VAL001-VAL002: invalid requests and numbers
//   - FILE001-FILE005, UPL002-UPL005, RATE001: upload and throttling
//
// # History
//
// Import runs older than the retention window are purged by
// [Service.StartHistoryScheduler].
package core
