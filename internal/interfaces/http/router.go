package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Conteos-api/internal/application/auth"
	"github.com/jhoicas/Conteos-api/internal/application/counting"
	"github.com/jhoicas/Conteos-api/internal/application/usecase"
	"github.com/jhoicas/Conteos-api/internal/domain/entity"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	CompanyUC   *usecase.CompanyUseCase
	UserUC      *usecase.UserUseCase
	WarehouseUC *usecase.WarehouseUseCase
	ProductUC   *usecase.ProductUseCase
	CountUC     *counting.CycleCountUseCase
	SheetUC     *counting.SheetUseCase
	AuthUC      *auth.AuthUseCase
	ModuleSvc   *usecase.ModuleService
	JWTSecret   string
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api")

	// Auth (público)
	authGroup := api.Group("/auth")
	authHandler := NewAuthHandler(deps.AuthUC)
	authGroup.Post("/register", authHandler.Register)
	authGroup.Post("/login", authHandler.Login)

	// Companies (público por ahora; se puede proteger con AuthMiddleware(deps.JWTSecret))
	companies := api.Group("/companies")
	companyHandler := NewCompanyHandler(deps.CompanyUC)
	companies.Get("/", companyHandler.List)
	companies.Post("/", companyHandler.Create)
	companies.Get("/:id", companyHandler.GetByID)

	// Rutas protegidas (requieren Bearer Token)
	protected := api.Group("/", AuthMiddleware(deps.JWTSecret))

	// Users (protegido)
	users := protected.Group("/users")
	userHandler := NewUserHandler(deps.UserUC)
	users.Get("/me", userHandler.Me)

	// Warehouses (protegido)
	warehouses := protected.Group("/warehouses")
	warehouseHandler := NewWarehouseHandler(deps.WarehouseUC)
	warehouses.Post("/", warehouseHandler.Create)
	warehouses.Get("/", warehouseHandler.List)
	warehouses.Get("/:id", warehouseHandler.GetByID)

	// Products (protegido)
	products := protected.Group("/products")
	productHandler := NewProductHandler(deps.ProductUC)
	products.Post("/", productHandler.Create)
	products.Get("/", productHandler.List)
	products.Get("/:id", productHandler.GetByID)
	products.Put("/:id", productHandler.Update)

	// Cycle counts (protegido + módulo counting). RequireRole es la primera
	// barrera; los casos de uso vuelven a verificar la capacidad por rol.
	counts := protected.Group("/counts", RequireModule(entity.ModuleCounting, deps.ModuleSvc))
	countHandler := NewCountHandler(deps.CountUC, deps.SheetUC)

	counts.Post("/", RequireRole(entity.RoleAdmin), countHandler.Create)
	counts.Get("/", countHandler.List)
	counts.Get("/:id", countHandler.GetStatus)
	counts.Get("/:id/sheet", countHandler.Sheet)

	counts.Post("/:id/start", RequireRole(entity.RoleAdmin, entity.RoleBodeguero), countHandler.Start)
	counts.Post("/:id/items", RequireRole(entity.RoleAdmin, entity.RoleBodeguero), countHandler.RecordCount)
	counts.Post("/:id/submit", RequireRole(entity.RoleAdmin, entity.RoleBodeguero), countHandler.Submit)

	counts.Post("/:id/approve", RequireRole(entity.RoleAdmin), countHandler.Approve)
	counts.Post("/:id/reject", RequireRole(entity.RoleAdmin), countHandler.Reject)
	counts.Post("/:id/cancel", RequireRole(entity.RoleAdmin), countHandler.Cancel)
	counts.Post("/:id/retry-adjustments", RequireRole(entity.RoleAdmin), countHandler.RetryAdjustments)
}
