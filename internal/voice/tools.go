package voice

func stringParam(desc string) map[string]any {
	return map[string]any{"type": "string", "description": desc}
}

func objectSchema(props map[string]any, required ...string) map[string]any {
	s := map[string]any{"type": "object", "properties": props}
	if len(required) > 0 {
		s["required"] = required
	}
	return s
}

func addRoomDef() ToolDefinition {
	return ToolDefinition{
		Name:        ToolAddRoom,
		Description: "Add a room to the visit and select it. Pass the room as spoken, for example 'kitchen' or 'back bedroom'.",
		Parameters:  objectSchema(map[string]any{"room": stringParam("Room name or type as spoken.")}, "room"),
	}
}

func addItemDef() ToolDefinition {
	return ToolDefinition{
		Name:        ToolAddItem,
		Description: "Add a work item to the selected room. Fails if no room is selected.",
		Parameters: objectSchema(map[string]any{
			"description": stringParam("What the work item is."),
			"item_type":   stringParam("Short item category, defaults to the description."),
			"quantity":    map[string]any{"type": "integer", "minimum": 1, "description": "How many. Defaults to 1."},
			"unit":        stringParam("Unit of measure, defaults to each."),
			"notes":       stringParam("Anything else worth recording."),
		}, "description"),
	}
}

func setRoomDef() ToolDefinition {
	return ToolDefinition{
		Name:        ToolSetRoom,
		Description: "Select an existing room by name. Partial names are accepted; ambiguous names return the room list.",
		Parameters:  objectSchema(map[string]any{"room": stringParam("Room name, or part of it.")}, "room"),
	}
}

func answerPromptDef() ToolDefinition {
	return ToolDefinition{
		Name:        ToolAnswerPrompt,
		Description: "Record the answer to a structured question. Applies to the selected room, or to the property when no room is selected.",
		Parameters: objectSchema(map[string]any{
			"prompt_key": stringParam("Key of the question being answered."),
			"response":   stringParam("The answer as given."),
		}, "prompt_key", "response"),
	}
}

func flagIssueDef() ToolDefinition {
	return ToolDefinition{
		Name:        ToolFlagIssue,
		Description: "Note a concern for the technician to review later. Does not change the scope.",
		Parameters: objectSchema(map[string]any{
			"issue":    stringParam("What the concern is."),
			"severity": map[string]any{"type": "string", "enum": []string{"low", "medium", "high"}},
		}, "issue"),
	}
}

func listRoomsDef() ToolDefinition {
	return ToolDefinition{
		Name:        ToolListRooms,
		Description: "List the rooms captured so far and which one is selected.",
		Parameters:  objectSchema(map[string]any{}),
	}
}
