package models

import (
	"time"
)

// Post represents an image post ("publicação") in the feed.
// Likes is a cached aggregate equal to the number of Like rows referencing the post.
type Post struct {
	ID          uint      `gorm:"column:id;primaryKey" json:"id"`
	ImageURL    string    `gorm:"column:imagem;not null" json:"imagem"`
	Description string    `gorm:"column:descricao;type:text;not null" json:"descricao"`
	UserID      uint      `gorm:"column:usuarioId;not null;index" json:"usuarioId"`
	Likes       int       `gorm:"column:curtidas;not null;default:0;check:chk_publicacao_curtidas,curtidas >= 0" json:"curtidas"`
	CreatedAt   time.Time `gorm:"column:createdAt;autoCreateTime;index" json:"createdAt"`
	Author      *Author   `gorm:"foreignKey:UserID;references:ID" json:"usuario,omitempty"`
}

// TableName returns the database table name for Post.
func (Post) TableName() string {
	return "publicacao"
}
