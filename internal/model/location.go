package model

// Location is a node in a DHIS2 organisation-unit hierarchy, scoped per
// instance. Every ancestor chain terminates at a parentless root and
// hierarchy levels strictly increase along the chain.
type Location struct {
	ID             string `json:"id" bson:"_id,omitempty"`
	Name           string `json:"name" bson:"name"`
	ParentID       string `json:"parentId,omitempty" bson:"parentId,omitempty"`
	HierarchyLevel int    `json:"hierarchylevel" bson:"hierarchyLevel"`
	InstanceKey    string `json:"instance_key" bson:"instanceKey"`
	Path           string `json:"path,omitempty" bson:"path,omitempty"`
}

// MaxHierarchyLevel is the deepest level a DHIS2 org-unit tree carries.
const MaxHierarchyLevel = 8
