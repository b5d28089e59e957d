package dynamo

// DynamoDB attribute names used in key conditions and update expressions.
const (
	fieldUpdatedAt   = "updated_at"
	fieldReaded      = "readed"
	fieldStatus      = "status"
	fieldName        = "name"
	fieldDescription = "description"
	fieldDateFrom    = "date_from"
	fieldDateTo      = "date_to"
)
