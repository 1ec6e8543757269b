package util

import (
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestSlugify(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"iPhone 13 Pro", "iphone-13-pro"},
		{"Новый телефон", "novyy-telefon"},
		{"Объявление", "obyavlenie"},
		{"  Wheels & Tyres  ", "wheels-tyres"},
		{"Стол (журнальный)", "stol-zhurnalnyy"},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, Slugify(tc.in), tc.in)
	}
}

type slugRow struct {
	ID   uint   `gorm:"primarykey"`
	Slug string `gorm:"uniqueIndex"`
}

func TestUniqueSlug(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&slugRow{}))

	take := func(base string) string {
		slug, err := UniqueSlug(db, &slugRow{}, base)
		require.NoError(t, err)
		require.NoError(t, db.Create(&slugRow{Slug: slug}).Error)
		return slug
	}

	require.Equal(t, "phone", take("phone"))
	require.Equal(t, "phone-2", take("phone"))
	require.Equal(t, "phone-3", take("phone"))
	require.Equal(t, "item", take(""))
}
