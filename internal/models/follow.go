package models

// Follow is a directed edge "FollowerID follows FollowedID". The composite
// primary key gives the edge set semantics.
type Follow struct {
	FollowerID uint `gorm:"primaryKey;autoIncrement:false" json:"follower_id"`
	FollowedID uint `gorm:"primaryKey;autoIncrement:false;index" json:"followed_id"`
}

// TableName specifies the table name for GORM
func (Follow) TableName() string {
	return "followers"
}
