package httpadapter

import (
	"net/http"

	"github.com/oapi-codegen/runtime"

	"github.com/kirillkom/context-reader/internal/core/domain"
)

func documentIDParam(r *http.Request) (string, error) {
	var id string
	err := runtime.BindStyledParameterWithOptions("simple", "document_id", r.PathValue("document_id"), &id,
		runtime.BindStyledParameterOptions{
			ParamLocation: runtime.ParamLocationPath,
			Explode:       false,
			Required:      true,
		})
	if err != nil {
		return "", domain.WrapError(domain.ErrInvalidInput, "bind document_id", err)
	}
	return id, nil
}

// optionalIntQuery returns 0 when the parameter is absent.
func optionalIntQuery(r *http.Request, name string) (int, error) {
	var value *int
	if err := runtime.BindQueryParameter("form", true, false, name, r.URL.Query(), &value); err != nil {
		return 0, domain.WrapError(domain.ErrInvalidInput, "bind "+name, err)
	}
	if value == nil {
		return 0, nil
	}
	return *value, nil
}
