// Package storage keeps uploaded documents on disk for a retention window.
//
// Store saves uploads under collision-free names of the form
// <stem>_<YYYYmmdd_HHMMSS>_<6 hex chars><ext> and records each file's
// SHA3-256 digest. Sweep deletes files older than the retention window;
// Sweeper runs Sweep on a cron schedule.
package storage
