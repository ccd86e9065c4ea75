package catalog

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/odyssey-commerce/internal/shared"
)

func TestLocalizedNameResolve(t *testing.T) {
	name := LocalizedName{"en": "Coffee", "ar": "قهوة"}
	require.Equal(t, "قهوة", name.Resolve("ar-SA,ar;q=0.9"))
	require.Equal(t, "Coffee", name.Resolve("fr-FR"))
	require.Equal(t, "Coffee", name.Resolve(""))

	only := LocalizedName{"de": "Kaffee"}
	require.Equal(t, "Kaffee", only.Resolve("en"))
}

func TestLocalizedNameValidate(t *testing.T) {
	require.NoError(t, LocalizedName{"en": "Tea"}.Validate())
	require.ErrorIs(t, LocalizedName{}.Validate(), shared.ErrInvalidInput)
	require.ErrorIs(t, LocalizedName{"not a tag!": "x"}.Validate(), shared.ErrInvalidInput)
	require.ErrorIs(t, LocalizedName{"en": ""}.Validate(), shared.ErrInvalidInput)
}
