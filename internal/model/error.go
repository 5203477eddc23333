package model

// ErrorResponse represents a standardised error response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// ErrorKind classifies a domain error into the failure taxonomy exposed over HTTP.
type ErrorKind int

const (
	KindValidation ErrorKind = iota
	KindUnauthenticated
	KindForbidden
	KindNotFound
)

// Standard error codes for API responses
const (
	ErrCodeInvalidPayload      = "INVALID_PAYLOAD"
	ErrCodeUnauthorised        = "UNAUTHORIZED"
	ErrCodeForbidden           = "FORBIDDEN"
	ErrCodeNotFound            = "NOT_FOUND"
	ErrCodeInvalidQuantity     = "INVALID_QUANTITY"
	ErrCodeInsufficientStock   = "INSUFFICIENT_STOCK"
	ErrCodeInvalidTransition   = "INVALID_TRANSITION"
	ErrCodeAlreadyConfirmed    = "ALREADY_CONFIRMED"
	ErrCodeMissingProof        = "MISSING_PAYMENT_PROOF"
	ErrCodeInvalidFile         = "INVALID_FILE"
	ErrCodeLimitReached        = "LIMIT_REACHED"
	ErrCodeDuplicateEmail      = "DUPLICATE_EMAIL"
	ErrCodeConcurrentUpdate    = "CONCURRENT_UPDATE"
	ErrCodeInvalidCredentials  = "INVALID_CREDENTIALS"
	ErrCodeUserHasOrders       = "USER_HAS_ORDERS"
	ErrCodeShippingUnavailable = "SHIPPING_UNAVAILABLE"
)

// DomainError is a business failure that maps onto one HTTP status.
type DomainError struct {
	Kind    ErrorKind
	Code    string
	Message string
}

func (e *DomainError) Error() string {
	return e.Message
}

// NewDomainError creates a new domain error
func NewDomainError(kind ErrorKind, code, message string) *DomainError {
	return &DomainError{
		Kind:    kind,
		Code:    code,
		Message: message,
	}
}

// Validationf creates a validation error with a custom message.
func Validationf(code, message string) *DomainError {
	return NewDomainError(KindValidation, code, message)
}

// Common domain errors
var (
	ErrUnauthenticated    = NewDomainError(KindUnauthenticated, ErrCodeUnauthorised, "No autorizado")
	ErrInvalidCredentials = NewDomainError(KindUnauthenticated, ErrCodeInvalidCredentials, "Credenciales inválidas")
	ErrForbidden          = NewDomainError(KindForbidden, ErrCodeForbidden, "No tienes permisos para realizar esta acción")
	ErrInvalidPayload     = NewDomainError(KindValidation, ErrCodeInvalidPayload, "Datos inválidos")

	ErrUserNotFound     = NewDomainError(KindNotFound, ErrCodeNotFound, "Usuario no encontrado")
	ErrProductNotFound  = NewDomainError(KindNotFound, ErrCodeNotFound, "Producto no encontrado")
	ErrOrderNotFound    = NewDomainError(KindNotFound, ErrCodeNotFound, "Pedido no encontrado")
	ErrCartItemNotFound = NewDomainError(KindNotFound, ErrCodeNotFound, "Producto no encontrado en el carrito")
	ErrZoneNotFound     = NewDomainError(KindNotFound, ErrCodeNotFound, "Zona de envío no encontrada")
	ErrAddressNotFound  = NewDomainError(KindNotFound, ErrCodeNotFound, "Dirección no encontrada")
	ErrPhoneNotFound    = NewDomainError(KindNotFound, ErrCodeNotFound, "Teléfono no encontrado")
	ErrVendorNotFound   = NewDomainError(KindNotFound, ErrCodeNotFound, "Vendedor no encontrado")

	ErrInvalidQuantity    = NewDomainError(KindValidation, ErrCodeInvalidQuantity, "La cantidad debe ser mayor a cero")
	ErrInsufficientStock  = NewDomainError(KindValidation, ErrCodeInsufficientStock, "Stock insuficiente")
	ErrAlreadyConfirmed   = NewDomainError(KindValidation, ErrCodeAlreadyConfirmed, "El pago ya fue confirmado")
	ErrMissingProof       = NewDomainError(KindValidation, ErrCodeMissingProof, "El pedido no tiene comprobante de pago")
	ErrMissingFile        = NewDomainError(KindValidation, ErrCodeInvalidFile, "No se proporcionó ningún archivo")
	ErrInvalidFileType    = NewDomainError(KindValidation, ErrCodeInvalidFile, "El archivo debe ser una imagen (jpeg, png, webp o gif)")
	ErrFileTooLarge       = NewDomainError(KindValidation, ErrCodeInvalidFile, "El archivo excede el tamaño máximo permitido")
	ErrConcurrentUpdate   = NewDomainError(KindValidation, ErrCodeConcurrentUpdate, "El pedido fue modificado por otra operación, intenta nuevamente")
	ErrDuplicateEmail     = NewDomainError(KindValidation, ErrCodeDuplicateEmail, "El email ya está registrado")
	ErrAddressLimit       = NewDomainError(KindValidation, ErrCodeLimitReached, "Solo puedes registrar hasta 3 direcciones")
	ErrPhoneLimit         = NewDomainError(KindValidation, ErrCodeLimitReached, "Solo puedes registrar hasta 2 teléfonos")
	ErrUserHasOrders      = NewDomainError(KindValidation, ErrCodeUserHasOrders, "No se puede eliminar un usuario con pedidos asociados")
	ErrCancelReason       = NewDomainError(KindValidation, ErrCodeInvalidPayload, "Debes indicar el motivo de la cancelación")
	ErrEmptyVendorCart    = NewDomainError(KindValidation, ErrCodeInvalidPayload, "No hay productos de este vendedor en el carrito")
	ErrZoneNotApplicable  = NewDomainError(KindValidation, ErrCodeShippingUnavailable, "La zona de envío seleccionada no está disponible para esta dirección")
	ErrInvalidCommission  = NewDomainError(KindValidation, ErrCodeInvalidPayload, "La comisión debe estar entre 0 y 100")
	ErrCannotDeleteSelf   = NewDomainError(KindValidation, ErrCodeInvalidPayload, "No puedes eliminar tu propia cuenta")
	ErrOrderNumberExhaust = NewDomainError(KindValidation, ErrCodeInvalidPayload, "Se alcanzó el máximo de pedidos para el día")
)
