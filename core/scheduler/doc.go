// Package scheduler turns an assignment table into a flexible job-shop
// constraint model and reads solver answers back into schedules.
//
// Every present (target, phase) slot owns a master interval and one
// optional interval per eligible platform. Presence flags select exactly
// one platform, platform timelines forbid overlapping present intervals and
// the makespan over the last phase of every target is minimised.
package scheduler
