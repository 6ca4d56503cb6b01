package models

// Racktables tables the migration reads. Column names follow the upstream
// schema; IPv4 addresses are `int unsigned`, IPv6 addresses `binary(16)`.

type IPv4Network struct {
	ID      int64  `gorm:"column:id;primaryKey"`
	IP      uint32 `gorm:"column:ip"`
	Mask    int    `gorm:"column:mask"`
	Name    string `gorm:"column:name"`
	Comment string `gorm:"column:comment"`
}

func (IPv4Network) TableName() string { return "IPv4Network" }

type IPv6Network struct {
	ID      int64  `gorm:"column:id;primaryKey"`
	IP      []byte `gorm:"column:ip;type:binary(16)"`
	Mask    int    `gorm:"column:mask"`
	Name    string `gorm:"column:name"`
	Comment string `gorm:"column:comment"`
}

func (IPv6Network) TableName() string { return "IPv6Network" }

type IPv4Address struct {
	IP      uint32 `gorm:"column:ip;primaryKey"`
	Name    string `gorm:"column:name"`
	Comment string `gorm:"column:comment"`
}

func (IPv4Address) TableName() string { return "IPv4Address" }

type IPv6Address struct {
	IP      []byte `gorm:"column:ip;primaryKey;type:binary(16)"`
	Name    string `gorm:"column:name"`
	Comment string `gorm:"column:comment"`
}

func (IPv6Address) TableName() string { return "IPv6Address" }

// IPv4Allocation binds an address to an Object. Name is the interface name.
type IPv4Allocation struct {
	ObjectID int64  `gorm:"column:object_id;primaryKey"`
	IP       uint32 `gorm:"column:ip;primaryKey"`
	Name     string `gorm:"column:name"`
	Type     string `gorm:"column:type"` // regular|shared|virtual|router|point2point|sharedrouter
}

func (IPv4Allocation) TableName() string { return "IPv4Allocation" }

type IPv6Allocation struct {
	ObjectID int64  `gorm:"column:object_id;primaryKey"`
	IP       []byte `gorm:"column:ip;primaryKey;type:binary(16)"`
	Name     string `gorm:"column:name"`
	Type     string `gorm:"column:type"`
}

func (IPv6Allocation) TableName() string { return "IPv6Allocation" }

type Object struct {
	ID        int64  `gorm:"column:id;primaryKey"`
	ObjtypeID int    `gorm:"column:objtype_id"`
	Name      string `gorm:"column:name"`
}

func (Object) TableName() string { return "Object" }

// TagStorage links a tag to an entity of a realm ("ipv4net", "ipv6net", "object", ...).
type TagStorage struct {
	EntityRealm string `gorm:"column:entity_realm;primaryKey"`
	EntityID    int64  `gorm:"column:entity_id;primaryKey"`
	TagID       int64  `gorm:"column:tag_id;primaryKey"`
}

func (TagStorage) TableName() string { return "TagStorage" }

type TagTree struct {
	ID  int64  `gorm:"column:id;primaryKey"`
	Tag string `gorm:"column:tag"`
}

func (TagTree) TableName() string { return "TagTree" }

// All lists every model, in an order usable for AutoMigrate on a scratch schema.
func All() []any {
	return []any{
		&IPv4Network{}, &IPv6Network{},
		&IPv4Address{}, &IPv6Address{},
		&IPv4Allocation{}, &IPv6Allocation{},
		&Object{}, &TagStorage{}, &TagTree{},
	}
}
