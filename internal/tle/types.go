package tle

import "time"

// Entry is a single target's two-line element set with its catalog name.
type Entry struct {
	NoradID int
	Name    string
	Epoch   time.Time
	Line1   string
	Line2   string
}

// EpochRange is the span of element epochs in a dataset.
type EpochRange struct {
	Min time.Time
	Max time.Time
}

// Dataset is a complete target catalog loaded from one source file.
type Dataset struct {
	Source   string
	LoadedAt time.Time
	Epochs   EpochRange
	Targets  []Entry
}

// NewDataset wraps parsed entries with their epoch span.
func NewDataset(source string, loadedAt time.Time, targets []Entry) *Dataset {
	ds := &Dataset{Source: source, LoadedAt: loadedAt, Targets: targets}
	if len(targets) > 0 {
		ds.Epochs.Min, ds.Epochs.Max = targets[0].Epoch, targets[0].Epoch
		for _, e := range targets[1:] {
			if e.Epoch.Before(ds.Epochs.Min) {
				ds.Epochs.Min = e.Epoch
			}
			if e.Epoch.After(ds.Epochs.Max) {
				ds.Epochs.Max = e.Epoch
			}
		}
	}
	return ds
}
