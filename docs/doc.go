// Package docs provides generated OpenAPI documentation.
//
// Folio API
//
//	@title			Folio API
//	@version		1.0
//	@description	Documentation and wiki server: pages, search, uploads and import/export.
//
//	@contact.name	API Support
//	@contact.url	https://github.com/jackzampolin/folio
//
//	@license.name	MIT
//	@license.url	https://opensource.org/licenses/MIT
//
//	@host		localhost:8080
//	@BasePath	/
//
//	@schemes	http https
//
//	@securityDefinitions.apikey	BearerToken
//	@in							header
//	@name						Authorization
package docs

//go:generate swag init -g ../cmd/folio/serve.go -o ./swagger --outputTypes go,json --parseDependency --parseInternal
