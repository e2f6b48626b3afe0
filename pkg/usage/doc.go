// Package usage turns feature HIT events from an audit trail into hit counts
// and charts.
//
// Every successful feature.Store.Check fires OnFeatureExecuted, which
// audit.FeatureListener records as a HIT event in the FEATURE scope. Service
// reads those events back and aggregates them per feature, host, user or
// source, or as a dense time series bucketed by minute, hour or day:
//
//	svc := usage.NewService(trail)
//	counts, _ := svc.HitCount(ctx, *audit.Window(from, to))
//	chart, _ := svc.FeatureUsageHistory(ctx, *audit.Window(from, to), usage.Day)
//
// Day keys use the yyyyMMdd layout in UTC unless WithLocation says otherwise.
package usage
