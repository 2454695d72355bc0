// Package orchestration runs the selected labs one after another and
// aggregates their outcomes into an exit status. It decouples run control from
// presentation via the ProgressReporter and ResultPresenter interfaces.
package orchestration
