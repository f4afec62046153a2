package pyckson

import "github.com/iancoleman/strcase"

// A NamingRule derives the external (payload) name of a field from its Go
// name. Rules apply to fields without an explicit tag alias; a tag alias
// always wins.
type NamingRule func(name string) string

// Identity keeps the Go field name as the external name. This is the
// default rule of a fresh Registry.
func Identity(name string) string {
	return name
}

// CamelCase maps `UserId` to `userId`.
func CamelCase(name string) string {
	return strcase.ToLowerCamel(name)
}

// SnakeCase maps `UserId` to `user_id`.
func SnakeCase(name string) string {
	return strcase.ToSnake(name)
}

// PascalCase maps `userId` to `UserId`.
func PascalCase(name string) string {
	return strcase.ToCamel(name)
}
