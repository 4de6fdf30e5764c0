package completion

// Keywords are the Oracle SQL and PL/SQL words offered by the SQL panel.
var Keywords = []string{
	"SELECT", "FROM", "WHERE", "JOIN", "LEFT", "RIGHT", "INNER", "OUTER",
	"FULL", "CROSS", "NATURAL", "USING", "ON", "AND", "OR", "NOT", "IN",
	"EXISTS", "BETWEEN", "LIKE", "IS", "NULL", "AS", "CASE", "WHEN", "THEN",
	"ELSE", "END", "INSERT", "INTO", "VALUES", "UPDATE", "SET", "DELETE",
	"MERGE", "MATCHED", "CREATE", "ALTER", "DROP", "TABLE", "VIEW", "INDEX",
	"UNIQUE", "PRIMARY", "KEY", "FOREIGN", "REFERENCES", "CONSTRAINT",
	"DEFAULT", "CHECK", "CASCADE", "GROUP", "BY", "ORDER", "ASC", "DESC",
	"NULLS", "FIRST", "LAST", "HAVING", "DISTINCT", "ALL", "ANY", "SOME",
	"UNION", "INTERSECT", "MINUS", "WITH", "COMMIT", "ROLLBACK", "SAVEPOINT",
	"GRANT", "REVOKE", "TRUNCATE", "COMMENT", "REPLACE",
	"ROWNUM", "ROWID", "LEVEL", "SYSDATE", "SYSTIMESTAMP", "DUAL", "PRIOR",
	"CONNECT", "START", "FETCH", "NEXT", "ROWS", "ONLY", "OFFSET",
	"PARTITION", "OVER", "SEQUENCE", "SYNONYM", "TRIGGER", "PACKAGE", "BODY",
	"PROCEDURE", "FUNCTION", "RETURN", "DECLARE", "BEGIN", "EXCEPTION",
	"LOOP", "WHILE", "FOR", "IF", "ELSIF", "EXIT", "CURSOR", "TYPE",
	"VARCHAR2", "NVARCHAR2", "CHAR", "NUMBER", "INTEGER", "DATE",
	"TIMESTAMP", "CLOB", "BLOB", "RAW",
}

// Functions are the built-in Oracle functions offered by the SQL panel.
var Functions = []string{
	"COUNT", "SUM", "AVG", "MIN", "MAX", "NVL", "NVL2", "COALESCE",
	"NULLIF", "DECODE", "CAST", "LOWER", "UPPER", "INITCAP", "TRIM",
	"LTRIM", "RTRIM", "LENGTH", "SUBSTR", "INSTR", "REPLACE", "CONCAT",
	"LPAD", "RPAD", "ABS", "CEIL", "FLOOR", "ROUND", "TRUNC", "MOD",
	"ADD_MONTHS", "MONTHS_BETWEEN", "LAST_DAY", "EXTRACT", "TO_CHAR",
	"TO_DATE", "TO_NUMBER", "TO_TIMESTAMP", "REGEXP_LIKE", "REGEXP_SUBSTR",
	"REGEXP_REPLACE", "LISTAGG", "ROW_NUMBER", "RANK", "DENSE_RANK", "LAG",
	"LEAD", "FIRST_VALUE", "LAST_VALUE", "NTILE", "GREATEST", "LEAST",
	"SYS_GUID", "USER",
}
