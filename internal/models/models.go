package models

import (
	"time"
)

const (
	ConditionNew  = "new"
	ConditionUsed = "used"

	StatusActive   = "active"
	StatusSold     = "sold"
	StatusArchived = "archived"
)

type User struct {
	ID           uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	Username     string `gorm:"unique;not null"          json:"username"`
	Email        string `gorm:"unique;not null"          json:"email"`
	PasswordHash string `gorm:"not null"                 json:"-"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	Role         string `gorm:"not null;default:user"    json:"role"`

	Profile *UserProfile `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}

type UserProfile struct {
	ID          uint      `gorm:"primaryKey"            json:"id"`
	UserID      uint      `gorm:"uniqueIndex;not null"  json:"user_id"`
	PhoneNumber string    `json:"phone_number"`
	Rating      float64   `gorm:"not null;default:0"    json:"rating"`
	Location    string    `json:"location"`
	CreatedAt   time.Time `json:"created_at"`
}

type RefreshToken struct {
	ID        uint   `gorm:"primaryKey"      json:"id"`
	Token     string `gorm:"unique;not null" json:"token"`
	UserID    uint   `gorm:"index;not null"  json:"user_id"`
	ExpiresAt int64  `gorm:"not null"        json:"expires_at"`
	Revoked   bool   `gorm:"default:false"   json:"revoked"`
}

type Category struct {
	ID          uint   `gorm:"primaryKey"          json:"id"`
	Name        string `gorm:"not null"            json:"name"`
	Description string `json:"description"`
	ParentID    *uint  `gorm:"index"               json:"parent"`
	Slug        string `gorm:"uniqueIndex;not null" json:"slug"`
	Icon        string `json:"icon"`

	Parent   *Category  `gorm:"foreignKey:ParentID;constraint:OnDelete:CASCADE" json:"-"`
	Children []Category `gorm:"foreignKey:ParentID" json:"-"`
}

type Product struct {
	ID            uint      `gorm:"primaryKey"               json:"id"`
	Title         string    `gorm:"not null"                 json:"title"`
	Description   string    `gorm:"not null"                 json:"description"`
	Price         float64   `gorm:"not null"                 json:"price"`
	CategoryID    uint      `gorm:"index;not null"           json:"category_id"`
	SubcategoryID *uint     `gorm:"index"                    json:"subcategory_id"`
	SellerID      uint      `gorm:"index;not null"           json:"seller_id"`
	Condition     string    `gorm:"not null;default:new"     json:"condition"`
	Status        string    `gorm:"index;not null;default:active" json:"status"`
	Location      string    `json:"location"`
	ViewsCount    uint      `gorm:"not null;default:0"       json:"views_count"`
	Slug          string    `gorm:"uniqueIndex;not null"     json:"slug"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`

	Category    Category       `gorm:"foreignKey:CategoryID;constraint:OnDelete:CASCADE"    json:"-"`
	Subcategory *Category      `gorm:"foreignKey:SubcategoryID;constraint:OnDelete:CASCADE" json:"-"`
	Seller      User           `gorm:"foreignKey:SellerID;constraint:OnDelete:CASCADE"      json:"-"`
	Images      []ProductImage `gorm:"foreignKey:ProductID"                                 json:"-"`
}

type ProductImage struct {
	ID        uint   `gorm:"primaryKey"     json:"id"`
	ProductID uint   `gorm:"index;not null" json:"product_id"`
	Image     string `gorm:"not null"       json:"image"`
	Order     int    `gorm:"column:display_order;not null;default:0" json:"order"`

	Product Product `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE" json:"-"`
}

type Favorite struct {
	ID        uint      `gorm:"primaryKey"                                    json:"id"`
	UserID    uint      `gorm:"not null;index;uniqueIndex:idx_user_product"   json:"user_id"`
	ProductID uint      `gorm:"not null;index;uniqueIndex:idx_user_product"   json:"product_id"`
	CreatedAt time.Time `json:"created_at"`

	Product Product `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE" json:"-"`
}

// BuyerID/SellerID денормализованы рядом со связью участников, чтобы
// уникальный индекс гарантировал один чат на пару (товар, покупатель).
type Chat struct {
	ID        uint      `gorm:"primaryKey"                                       json:"id"`
	ProductID uint      `gorm:"not null;index;uniqueIndex:idx_chat_product_buyer" json:"product_id"`
	BuyerID   uint      `gorm:"not null;uniqueIndex:idx_chat_product_buyer"      json:"buyer_id"`
	SellerID  uint      `gorm:"not null;index"                                   json:"seller_id"`
	CreatedAt time.Time `json:"created_at"`

	Product      Product   `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE" json:"-"`
	Participants []User    `gorm:"many2many:chat_participants"                      json:"-"`
	Messages     []Message `gorm:"foreignKey:ChatID"                                json:"-"`
}

type Message struct {
	ID        uint      `gorm:"primaryKey"     json:"id"`
	ChatID    uint      `gorm:"index;not null" json:"chat"`
	SenderID  uint      `gorm:"index;not null" json:"sender"`
	Text      string    `gorm:"not null"       json:"text"`
	IsRead    bool      `gorm:"default:false"  json:"is_read"`
	CreatedAt time.Time `json:"created_at"`

	Chat   Chat `gorm:"foreignKey:ChatID;constraint:OnDelete:CASCADE"   json:"-"`
	Sender User `gorm:"foreignKey:SenderID;constraint:OnDelete:CASCADE" json:"-"`
}

// Day хранит календарную дату просмотра: уникальные индексы дают не
// больше одной строки на посетителя в сутки, вставка идёт через
// ON CONFLICT DO NOTHING.
type ProductView struct {
	ID        uint      `gorm:"primaryKey"                                      json:"id"`
	ProductID uint      `gorm:"not null;uniqueIndex:idx_view_user;uniqueIndex:idx_view_ip" json:"product_id"`
	UserID    *uint     `gorm:"uniqueIndex:idx_view_user"                       json:"user_id"`
	IPAddress *string   `gorm:"uniqueIndex:idx_view_ip"                         json:"ip_address"`
	Day       time.Time `gorm:"not null;uniqueIndex:idx_view_user;uniqueIndex:idx_view_ip" json:"-"`
	ViewedAt  time.Time `json:"viewed_at"`

	Product Product `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE" json:"-"`
}
