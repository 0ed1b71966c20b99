package main

// General API documentation for swaggo. Run `swag init -g cmd/sqwerl/docs.go` to generate docs.
//
// @title           sqwerl API
// @version         1.0
// @description     Windowed access to hierarchical collections of things.
//
// @contact.name   sqwerl maintainers
// @contact.url    https://sqwerl.com
//
// @license.name   MIT
// @license.url    https://opensource.org/licenses/MIT
//
// @BasePath  /
//
// @schemes http
