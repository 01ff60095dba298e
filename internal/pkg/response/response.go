package response

import "github.com/gin-gonic/gin"

func Success(c *gin.Context, statusCode int, data interface{}) {
	c.JSON(statusCode, gin.H{
		"success": true,
		"data":    data,
	})
}

func Error(c *gin.Context, statusCode int, code string, message string) {
	c.JSON(statusCode, gin.H{
		"success": false,
		"error": gin.H{
			"code":    code,
			"message": message,
		},
	})
}

// FieldErrors writes the field keyed error map the admin console reads,
// e.g. {"success":false,"error":{"price":"Price must be a number"}}.
func FieldErrors(c *gin.Context, statusCode int, fields map[string]string) {
	c.JSON(statusCode, gin.H{
		"success": false,
		"error":   fields,
	})
}

// Field is a shorthand for a single field error.
func Field(c *gin.Context, statusCode int, field, message string) {
	FieldErrors(c, statusCode, map[string]string{field: message})
}

func Abort(c *gin.Context, statusCode int, code string, message string) {
	Error(c, statusCode, code, message)
	c.Abort()
}
