package handlers

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGetCategoriesTree(t *testing.T) {
	env := newTestEnv(t)
	electronics := env.createCategory("Electronics", nil)
	env.createCategory("Phones", &electronics.ID)
	env.createCategory("Auto", nil)

	rec, c := env.doJSONRequest(http.MethodGet, "/api/v1/categories", nil)
	require.NoError(t, env.C.GetCategories(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp []struct {
		Name     string `json:"name"`
		Children []struct {
			Name string `json:"name"`
		} `json:"children"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	// Подкатегории не попадают на верхний уровень.
	require.Len(t, resp, 2)
	require.Equal(t, "Auto", resp[0].Name)
	require.Equal(t, "Electronics", resp[1].Name)
	require.Len(t, resp[1].Children, 1)
	require.Equal(t, "Phones", resp[1].Children[0].Name)
}

func TestCreateCategorySlugs(t *testing.T) {
	env := newTestEnv(t)

	create := func(name string) string {
		rec, c := env.doJSONRequest(http.MethodPost, "/api/v1/categories", map[string]interface{}{
			"name": name,
		})
		require.NoError(t, env.C.CreateCategory(c))
		require.Equal(t, http.StatusCreated, rec.Code)

		var resp struct {
			Slug string `json:"slug"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		return resp.Slug
	}

	require.Equal(t, "elektronika", create("Электроника"))
	// Одинаковые имена получают числовой суффикс.
	require.Equal(t, "elektronika-2", create("Электроника"))
}

func TestCreateCategoryDeepParentRejected(t *testing.T) {
	env := newTestEnv(t)
	electronics := env.createCategory("Electronics", nil)
	phones := env.createCategory("Phones", &electronics.ID)

	rec, c := env.doJSONRequest(http.MethodPost, "/api/v1/categories", map[string]interface{}{
		"name":   "Смартфоны",
		"parent": phones.ID,
	})
	require.NoError(t, env.C.CreateCategory(c))
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var resp struct {
		Errors map[string]string `json:"errors"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Contains(t, resp.Errors, "parent")
}

func TestPatchCategoryKeepsSlug(t *testing.T) {
	env := newTestEnv(t)
	category := env.createCategory("Electronics", nil)

	rec, c := env.doJSONRequest(http.MethodPatch, "/api/v1/categories/"+category.Slug, map[string]interface{}{
		"name": "Бытовая техника",
	})
	c.SetParamNames("slug")
	c.SetParamValues(category.Slug)
	require.NoError(t, env.C.PatchCategory(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Name string `json:"name"`
		Slug string `json:"slug"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "Бытовая техника", resp.Name)
	require.Equal(t, "electronics", resp.Slug)
}
