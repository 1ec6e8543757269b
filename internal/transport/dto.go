package transport

import (
	"time"

	"github.com/ChuChu19999/Baraholka/internal/models"
)

const (
	dateLayout     = "02.01.2006"
	dateTimeLayout = "02.01.2006 15:04"
)

type UserDTO struct {
	ID          uint   `json:"id"`
	Username    string `json:"username"`
	Email       string `json:"email"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	PhoneNumber string `json:"phone_number,omitempty"`
}

type ProfileDTO struct {
	ID          uint    `json:"id"`
	User        UserDTO `json:"user"`
	PhoneNumber string  `json:"phone_number"`
	Rating      float64 `json:"rating"`
	Location    string  `json:"location"`
	CreatedAt   string  `json:"created_at"`
}

type CategoryDTO struct {
	ID          uint          `json:"id"`
	Name        string        `json:"name"`
	Description string        `json:"description"`
	Parent      *uint         `json:"parent"`
	Slug        string        `json:"slug"`
	Icon        string        `json:"icon"`
	Children    []CategoryDTO `json:"children,omitempty"`
}

type ProductImageDTO struct {
	ID    uint   `json:"id"`
	Image string `json:"image"`
	Order int    `json:"order"`
}

type ProductSummaryDTO struct {
	ID              uint      `json:"id"`
	Title           string    `json:"title"`
	Price           float64   `json:"price"`
	CategoryName    string    `json:"category_name"`
	SubcategoryName string    `json:"subcategory_name,omitempty"`
	SellerName      string    `json:"seller_name"`
	Condition       string    `json:"condition"`
	Status          string    `json:"status"`
	Location        string    `json:"location"`
	ViewsCount      uint      `json:"views_count"`
	CreatedAt       time.Time `json:"created_at"`
	Slug            string    `json:"slug"`
	MainImage       string    `json:"main_image,omitempty"`
}

type ProductDetailDTO struct {
	ID          uint              `json:"id"`
	Title       string            `json:"title"`
	Description string            `json:"description"`
	Price       float64           `json:"price"`
	Category    CategoryDTO       `json:"category"`
	Subcategory *CategoryDTO      `json:"subcategory"`
	Seller      UserDTO           `json:"seller"`
	Condition   string            `json:"condition"`
	Status      string            `json:"status"`
	Location    string            `json:"location"`
	ViewsCount  uint              `json:"views_count"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
	Slug        string            `json:"slug"`
	Images      []ProductImageDTO `json:"images"`
	IsFavorite  bool              `json:"is_favorite"`
}

type FavoriteDTO struct {
	ID        uint              `json:"id"`
	Product   ProductSummaryDTO `json:"product"`
	CreatedAt time.Time         `json:"created_at"`
}

type MessageDTO struct {
	ID             uint   `json:"id"`
	Chat           uint   `json:"chat"`
	Sender         uint   `json:"sender"`
	SenderUsername string `json:"sender_username"`
	Text           string `json:"text"`
	CreatedAt      string `json:"created_at"`
	IsRead         bool   `json:"is_read"`
}

type ChatDTO struct {
	ID           uint              `json:"id"`
	Participants []UserDTO         `json:"participants"`
	Product      ProductSummaryDTO `json:"product"`
	CreatedAt    time.Time         `json:"created_at"`
	LastMessage  *MessageDTO       `json:"last_message"`
	UnreadCount  int64             `json:"unread_count"`
}

type TokenPairDTO struct {
	User    UserDTO `json:"user"`
	Token   string  `json:"token"`
	Refresh string  `json:"refresh"`
}

func NewUserDTO(u *models.User, phoneNumber string) UserDTO {
	return UserDTO{
		ID:          u.ID,
		Username:    u.Username,
		Email:       u.Email,
		FirstName:   u.FirstName,
		LastName:    u.LastName,
		PhoneNumber: phoneNumber,
	}
}

func NewProfileDTO(u *models.User, p *models.UserProfile) ProfileDTO {
	return ProfileDTO{
		ID:          p.ID,
		User:        NewUserDTO(u, p.PhoneNumber),
		PhoneNumber: p.PhoneNumber,
		Rating:      p.Rating,
		Location:    p.Location,
		CreatedAt:   p.CreatedAt.Format(dateLayout),
	}
}

func NewCategoryDTO(c *models.Category) CategoryDTO {
	dto := CategoryDTO{
		ID:          c.ID,
		Name:        c.Name,
		Description: c.Description,
		Parent:      c.ParentID,
		Slug:        c.Slug,
		Icon:        c.Icon,
	}
	for i := range c.Children {
		dto.Children = append(dto.Children, NewCategoryDTO(&c.Children[i]))
	}
	return dto
}

func NewProductSummaryDTO(p *models.Product) ProductSummaryDTO {
	dto := ProductSummaryDTO{
		ID:           p.ID,
		Title:        p.Title,
		Price:        p.Price,
		CategoryName: p.Category.Name,
		SellerName:   p.Seller.Username,
		Condition:    p.Condition,
		Status:       p.Status,
		Location:     p.Location,
		ViewsCount:   p.ViewsCount,
		CreatedAt:    p.CreatedAt,
		Slug:         p.Slug,
	}
	if p.Subcategory != nil {
		dto.SubcategoryName = p.Subcategory.Name
	}
	if len(p.Images) > 0 {
		dto.MainImage = p.Images[0].Image
	}
	return dto
}

func NewProductDetailDTO(p *models.Product, isFavorite bool) ProductDetailDTO {
	dto := ProductDetailDTO{
		ID:          p.ID,
		Title:       p.Title,
		Description: p.Description,
		Price:       p.Price,
		Category:    NewCategoryDTO(&p.Category),
		Seller:      NewUserDTO(&p.Seller, ""),
		Condition:   p.Condition,
		Status:      p.Status,
		Location:    p.Location,
		ViewsCount:  p.ViewsCount,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
		Slug:        p.Slug,
		Images:      make([]ProductImageDTO, 0, len(p.Images)),
		IsFavorite:  isFavorite,
	}
	if p.Subcategory != nil {
		sub := NewCategoryDTO(p.Subcategory)
		dto.Subcategory = &sub
	}
	for _, img := range p.Images {
		dto.Images = append(dto.Images, ProductImageDTO{
			ID:    img.ID,
			Image: img.Image,
			Order: img.Order,
		})
	}
	return dto
}

func NewFavoriteDTO(f *models.Favorite) FavoriteDTO {
	return FavoriteDTO{
		ID:        f.ID,
		Product:   NewProductSummaryDTO(&f.Product),
		CreatedAt: f.CreatedAt,
	}
}

func NewMessageDTO(m *models.Message) MessageDTO {
	return MessageDTO{
		ID:             m.ID,
		Chat:           m.ChatID,
		Sender:         m.SenderID,
		SenderUsername: m.Sender.Username,
		Text:           m.Text,
		CreatedAt:      m.CreatedAt.Format(dateTimeLayout),
		IsRead:         m.IsRead,
	}
}

func NewChatDTO(chat *models.Chat, lastMessage *models.Message, unread int64) ChatDTO {
	dto := ChatDTO{
		ID:           chat.ID,
		Product:      NewProductSummaryDTO(&chat.Product),
		CreatedAt:    chat.CreatedAt,
		UnreadCount:  unread,
		Participants: make([]UserDTO, 0, len(chat.Participants)),
	}
	for i := range chat.Participants {
		dto.Participants = append(dto.Participants, NewUserDTO(&chat.Participants[i], ""))
	}
	if lastMessage != nil {
		m := NewMessageDTO(lastMessage)
		dto.LastMessage = &m
	}
	return dto
}
