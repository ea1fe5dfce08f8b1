package models

// Like records that a user liked a post ("curtida").
// The combination of PostID and UserID must be unique. Likes are hard-deleted;
// a soft-deleted row would keep occupying the unique slot.
type Like struct {
	ID     uint `gorm:"column:id;primaryKey" json:"id"`
	PostID uint `gorm:"column:publicacaoId;not null;uniqueIndex:curtida_publicacaoId_usuarioId_key,priority:1" json:"publicacaoId"`
	UserID uint `gorm:"column:usuarioId;not null;uniqueIndex:curtida_publicacaoId_usuarioId_key,priority:2;index" json:"usuarioId"`

	Post *Post `gorm:"foreignKey:PostID;references:ID" json:"-"`
	User *User `gorm:"foreignKey:UserID;references:ID" json:"-"`
}

// TableName returns the database table name for Like.
func (Like) TableName() string {
	return "curtida"
}
