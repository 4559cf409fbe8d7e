package model

// RemoteOptionSet is the option set linked to a remote data element
type RemoteOptionSet struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// RemoteElement is a DHIS2 data element or tracked-entity attribute as
// seen by the mapping reconciler.
type RemoteElement struct {
	ID          string           `json:"id"`
	Name        string           `json:"name"`
	ValueType   string           `json:"valueType,omitempty"`
	StageID     string           `json:"stageId,omitempty"` // tracker domain only
	IsAttribute bool             `json:"isAttribute,omitempty"`
	OptionSet   *RemoteOptionSet `json:"optionSet,omitempty"`
}

// ElementConflict records a data element that appears in multiple
// program stages with differing metadata. The reconciler surfaces these
// instead of letting the last-iterated stage silently win.
type ElementConflict struct {
	ElementID string   `json:"elementId"`
	StageIDs  []string `json:"stageIds"`
	Names     []string `json:"names"`
}

// ElementListing is the result of enumerating a program's or dataset's
// elements.
type ElementListing struct {
	Elements  []RemoteElement   `json:"elements"`
	Conflicts []ElementConflict `json:"conflicts,omitempty"`
}
