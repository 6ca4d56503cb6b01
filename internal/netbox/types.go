package netbox

// NetBox v4 REST entity shapes, limited to the fields the migration reads or writes.

type Choice struct {
	Value string `json:"value"`
	Label string `json:"label,omitempty"`
}

// NestedRef is the brief form NetBox embeds for related objects.
type NestedRef struct {
	ID   int    `json:"id"`
	Name string `json:"name,omitempty"`
}

// NestedTag references a tag by name in write payloads.
type NestedTag struct {
	Name string `json:"name"`
}

type Tag struct {
	ID    int    `json:"id"`
	Name  string `json:"name"`
	Slug  string `json:"slug"`
	Color string `json:"color,omitempty"`
}

type Site struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

type Tenant struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

type Device struct {
	ID   int        `json:"id"`
	Name string     `json:"name"`
	Site *NestedRef `json:"site,omitempty"`
}

type Cluster struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

type VirtualMachine struct {
	ID      int        `json:"id"`
	Name    string     `json:"name"`
	Cluster *NestedRef `json:"cluster,omitempty"`
}

type Interface struct {
	ID     int        `json:"id"`
	Name   string     `json:"name"`
	Device *NestedRef `json:"device,omitempty"`
	Type   *Choice    `json:"type,omitempty"`
}

type VMInterface struct {
	ID             int        `json:"id"`
	Name           string     `json:"name"`
	VirtualMachine *NestedRef `json:"virtual_machine,omitempty"`
}

type Prefix struct {
	ID          int     `json:"id"`
	Prefix      string  `json:"prefix"`
	Status      *Choice `json:"status,omitempty"`
	Description string  `json:"description,omitempty"`
	Tags        []Tag   `json:"tags,omitempty"`
}

type IPAddress struct {
	ID                 int     `json:"id"`
	Address            string  `json:"address"`
	AssignedObjectType string  `json:"assigned_object_type,omitempty"`
	AssignedObjectID   *int    `json:"assigned_object_id,omitempty"`
	Role               *Choice `json:"role,omitempty"`
	Description        string  `json:"description,omitempty"`
	Tags               []Tag   `json:"tags,omitempty"`
}

// ListResponse is the paginated envelope of NetBox list endpoints.
type ListResponse[T any] struct {
	Count    int    `json:"count"`
	Next     string `json:"next,omitempty"`
	Previous string `json:"previous,omitempty"`
	Results  []T    `json:"results"`
}

type PrefixRequest struct {
	Prefix       string         `json:"prefix"`
	Status       string         `json:"status,omitempty"`
	Description  string         `json:"description,omitempty"`
	VLAN         *int           `json:"vlan,omitempty"`
	Tenant       *int           `json:"tenant,omitempty"`
	Tags         []NestedTag    `json:"tags,omitempty"`
	CustomFields map[string]any `json:"custom_fields,omitempty"`
}

type IPAddressRequest struct {
	Address            string         `json:"address"`
	Role               string         `json:"role,omitempty"`
	AssignedObjectType string         `json:"assigned_object_type,omitempty"`
	AssignedObjectID   *int           `json:"assigned_object_id,omitempty"`
	Description        string         `json:"description,omitempty"`
	Tenant             *int           `json:"tenant,omitempty"`
	Tags               []NestedTag    `json:"tags,omitempty"`
	CustomFields       map[string]any `json:"custom_fields,omitempty"`
}

type InterfaceRequest struct {
	Device       int            `json:"device"`
	Name         string         `json:"name"`
	Type         string         `json:"type"`
	CustomFields map[string]any `json:"custom_fields,omitempty"`
}

type VMInterfaceRequest struct {
	VirtualMachine int            `json:"virtual_machine"`
	Name           string         `json:"name"`
	CustomFields   map[string]any `json:"custom_fields,omitempty"`
}

type TagRequest struct {
	Name string `json:"name"`
	Slug string `json:"slug"`
}

type TenantRequest struct {
	Name string `json:"name"`
	Slug string `json:"slug"`
}
