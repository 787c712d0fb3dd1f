package catalog

var definitions = []TagDefinition{
	{
		Name:        "PARAM",
		Description: "Displays the value of a parameter passed to the page",
		Category:    CategoryDisplay,
		Attributes: []AttributeSpec{
			{Name: "name", Required: true, Type: TypeString, Description: "The parameter name to display (e.g., TransactionNumber, FirstName, ItemTitle)"},
			{Name: "enabled", Type: TypeString, Description: "CSS class to apply when the condition is enabled"},
			{Name: "disabled", Type: TypeString, Description: "CSS class to apply when the condition is disabled"},
		},
		Examples: []string{
			`<#PARAM name="TransactionNumber">`,
			`<#PARAM name="ItemTitle">`,
			`<#PARAM name="RequestLinksVisible" enabled="RequestForEnabled" disabled="d-none">`,
		},
	},
	{
		Name:        "INCLUDE",
		Description: "Includes content from another HTML file or generates special include types",
		Category:    CategoryInclude,
		Attributes: []AttributeSpec{
			{Name: "filename", Type: TypeString, Description: "The HTML file to include (resolved against the include search paths)"},
			{Name: "type", Type: TypeEnum, AllowedValues: []string{"DetailedDocTypeInformation", "Photoduplication", "RequestButtons", "RISDocTypeInformation"}, Description: "Special include type for dynamic content"},
			{Name: "restriction", Type: TypeString, Description: "Conditional restriction for including the content"},
		},
		Examples: []string{
			`<#INCLUDE filename="include_header.html">`,
			`<#INCLUDE type="DetailedDocTypeInformation">`,
			`<#INCLUDE filename="include_menu.html" restriction="IsValidSession">`,
		},
	},
	{
		Name:        "STATUS",
		Description: "Displays status messages and errors on the page",
		Category:    CategoryDisplay,
		Attributes: []AttributeSpec{
			{Name: "class", Type: TypeString, Description: "CSS class of the status container (default: status)"},
		},
		Examples: []string{`<#STATUS>`, `<div id="statusLine"><#STATUS></div>`},
	},
	{
		Name:        "ERROR",
		Description: "Displays the validation error for a form field",
		Category:    CategoryDisplay,
		Attributes: []AttributeSpec{
			{Name: "name", Type: TypeString, Description: "The error field name (typically ERROR + FieldName)"},
			{Name: "field", Type: TypeString, Description: "Alias of name"},
		},
		Examples: []string{
			`<#ERROR name="ERRORItemTitle">`,
			`<span class="<#ERROR name='ERRORCallNumber'>">`,
		},
	},
	{
		Name:        "OPTION",
		Description: "Generates dropdown options from CustomDropDown table groups",
		Category:    CategoryControl,
		Attributes: []AttributeSpec{
			{Name: "name", Required: true, Type: TypeString, Description: "The CustomDropDown group name to load options from"},
			{Name: "selectedValue", Type: TypeString, Description: "The currently selected value"},
			{Name: "defaultName", Type: TypeString, Description: "Default option text to display"},
			{Name: "defaultValue", Type: TypeString, Description: "Default option value"},
			{Name: "hideUsernames", Type: TypeBoolean, Description: "Hide usernames in the display (for RequestLinks)"},
		},
		Examples: []string{
			`<#OPTION name="Departments" selectedValue="<#PARAM name='Department'>" defaultName="Choose a Department" defaultValue="">`,
			`<#OPTION name="Format">`,
		},
	},
	{
		Name:        "TABLE",
		Description: "Displays data tables with customizable formatting",
		Category:    CategoryTable,
		Attributes: []AttributeSpec{
			{Name: "name", Required: true, Type: TypeString, Description: "The table type to display (e.g., ViewOutstandingRequests, Transactions, Activities)"},
			{Name: "id", Type: TypeString, Description: "HTML ID for the table element"},
			{Name: "class", Type: TypeString, Description: "CSS classes for the table"},
			{Name: "HeaderText", Type: TypeString, Description: "Custom header text for the table"},
			{Name: "NoDataAction", Type: TypeString, Description: "Action to take when no data is available"},
			{Name: "NoDataMessage", Type: TypeString, Description: "Message to display when no data is available"},
			{Name: "Column", Type: TypeString, Description: `Column definition in format "field:label"`},
		},
		Examples: []string{
			`<#TABLE name="ViewOutstandingRequests" class="table table-striped" id="outstanding-requests">`,
			`<#TABLE name="ViewAllRequests" HeaderText="All Requests" NoDataMessage="No requests found">`,
		},
	},
	{
		Name:        "CONDITIONAL",
		Description: "Conditional display of content based on a field equality test",
		Category:    CategoryControl,
		Attributes: []AttributeSpec{
			{Name: "test", Required: true, Type: TypeString, Description: `Equality test of the form field='value'`},
			{Name: "type", Type: TypeEnum, AllowedValues: []string{"CustomizationKey", "ConvertingToCopy", "IsValidSession"}, Description: "The type of condition to check"},
			{Name: "true", Type: TypeString, Description: "Output when condition is true"},
			{Name: "false", Type: TypeString, Description: "Output when condition is false"},
		},
		Examples: []string{
			`<#CONDITIONAL test="RequestType='Loan'">`,
			`<#CONDITIONAL type="IsValidSession" test="Status='Active'" true="logged in" false="not logged in">`,
		},
	},
	{
		Name:        "USER",
		Description: "Displays user information fields",
		Category:    CategoryUser,
		Attributes: []AttributeSpec{
			{Name: "field", Required: true, Type: TypeString, Description: "The user field to display (e.g., Username, FirstName, LastName, EmailAddress)"},
		},
		Examples: []string{`<#USER field="Username">`, `<#USER field="EmailAddress">`},
	},
	{
		Name:        "ACTIVITY",
		Description: "Displays activity-related information",
		Category:    CategoryActivity,
		Attributes: []AttributeSpec{
			{Name: "field", Required: true, Type: TypeString, Description: "The activity field to display (e.g., Name, Description, BeginDate)"},
			{Name: "display", Type: TypeEnum, AllowedValues: []string{"ISO8601"}, Description: "Display format for the field"},
		},
		Examples: []string{`<#ACTIVITY field="Name">`, `<#ACTIVITY field="BeginDate" display="ISO8601">`},
	},
	{
		Name:        "FORMSTATE",
		Description: "Maintains form state across page submissions",
		Category:    CategoryUtility,
		Examples:    []string{`<#FORMSTATE>`, `<form method="post"><#FORMSTATE>...</form>`},
	},
	{
		Name:        "CHECKED",
		Description: "Marks a checkbox or radio input as checked when the field is set",
		Category:    CategoryControl,
		Attributes: []AttributeSpec{
			{Name: "name", Type: TypeString, Description: "The field whose value decides the checked state (Yes/true)"},
			{Name: "default", Type: TypeBoolean, Description: "Checked state when the field has no value"},
		},
		Examples: []string{`<input type="checkbox" name="ForPublication" <#CHECKED name="ForPublication">>`},
	},
	{
		Name:        "SELECTED",
		Description: "Marks an option as selected when the field is set",
		Category:    CategoryControl,
		Attributes: []AttributeSpec{
			{Name: "name", Type: TypeString, Description: "The field whose value decides the selected state (Yes/true)"},
			{Name: "default", Type: TypeBoolean, Description: "Selected state when the field has no value"},
		},
		Examples: []string{`<option value="Yes" <#SELECTED name="Shipping">>Yes</option>`},
	},
	{
		Name:        "ACTION",
		Description: "Generates action URLs for navigation and form submission",
		Category:    CategoryUtility,
		Attributes: []AttributeSpec{
			{Name: "action", Required: true, Type: TypeString, Description: "The action number (see Aeon action reference)"},
			{Name: "form", Type: TypeString, Description: "The form number (see Aeon form reference)"},
		},
		Examples: []string{`<#ACTION action="10" form="1">`, `<#ACTION action="11">`},
	},
	{
		Name:        "REPLACE",
		Description: "Replaces text strings in the output",
		Category:    CategoryUtility,
		Attributes: []AttributeSpec{
			{Name: "old", Required: true, Type: TypeString, Description: "Text to find and replace"},
			{Name: "new", Required: true, Type: TypeString, Description: "Replacement text"},
		},
		Examples: []string{`<#REPLACE old="oldtext" new="newtext">`},
	},
	{
		Name:        "SESSION",
		Description: "Accesses session variables",
		Category:    CategoryUtility,
		Attributes: []AttributeSpec{
			{Name: "name", Required: true, Type: TypeString, Description: "The session variable name"},
		},
		Examples: []string{`<#SESSION name="Username">`},
	},
	{
		Name:        "COOKIE",
		Description: "Accesses cookie values",
		Category:    CategoryUtility,
		Attributes: []AttributeSpec{
			{Name: "name", Required: true, Type: TypeString, Description: "The cookie name"},
		},
		Examples: []string{`<#COOKIE name="SessionID">`},
	},
	{
		Name:        "COPYRIGHT",
		Description: "Displays copyright information",
		Category:    CategoryDisplay,
		Examples:    []string{`<#COPYRIGHT>`},
	},
	{
		Name:        "BILLINGACCOUNT",
		Description: "Handles billing account information",
		Category:    CategoryUtility,
		Examples:    []string{`<#BILLINGACCOUNT>`},
	},
	{
		Name:        "PHOTODUPLICATION",
		Description: "Related to photoduplication request handling",
		Category:    CategoryUtility,
		Examples:    []string{`<#PHOTODUPLICATION>`},
	},
	{
		Name:        "PAYMENTPROVIDERURL",
		Description: "Payment provider URL for payment forms",
		Category:    CategoryUtility,
		Examples:    []string{`<#PAYMENTPROVIDERURL>`},
	},
}
