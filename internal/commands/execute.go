package commands

import "fmt"

type Result struct {
	Message string
	// Quit asks the caller to end the session.
	Quit bool
}

type Handlers struct {
	New      func(NewArgs) (Result, error)
	Complete func(TargetArgs) (Result, error)
	Edit     func(TargetArgs) (Result, error)
	Rename   func(TargetArgs) (Result, error)
	Inspect  func(TargetArgs) (Result, error)
	Delete   func(TargetArgs) (Result, error)
	Drop     func(HistoryArgs) (Result, error)
	Replace  func(HistoryArgs) (Result, error)
	Sort     func(SortArgs) (Result, error)
	Settings func() (Result, error)
	Page     func(PageArgs) (Result, error)
}

func Execute(cmd Command, handlers Handlers) (Result, error) {
	switch cmd.Type {
	case TypeNew:
		if handlers.New == nil {
			return Result{}, missing(cmd.Type)
		}
		return handlers.New(*cmd.New)
	case TypeComplete, TypeEdit, TypeRename, TypeInspect, TypeDelete:
		h := targetHandler(cmd.Type, handlers)
		if h == nil {
			return Result{}, missing(cmd.Type)
		}
		return h(*cmd.Target)
	case TypeDrop:
		if handlers.Drop == nil {
			return Result{}, missing(cmd.Type)
		}
		return handlers.Drop(*cmd.History)
	case TypeReplace:
		if handlers.Replace == nil {
			return Result{}, missing(cmd.Type)
		}
		return handlers.Replace(*cmd.History)
	case TypeSort:
		if handlers.Sort == nil {
			return Result{}, missing(cmd.Type)
		}
		return handlers.Sort(*cmd.Sort)
	case TypeSettings:
		if handlers.Settings == nil {
			return Result{}, missing(cmd.Type)
		}
		return handlers.Settings()
	case TypePage:
		if handlers.Page == nil {
			return Result{}, missing(cmd.Type)
		}
		return handlers.Page(*cmd.Page)
	case TypeQuit:
		return Result{Quit: true}, nil
	default:
		return Result{}, &CommandError{Code: ErrCodeUnknownCommand, Message: fmt.Sprintf("unknown command type: %s", cmd.Type)}
	}
}

func targetHandler(t Type, h Handlers) func(TargetArgs) (Result, error) {
	switch t {
	case TypeComplete:
		return h.Complete
	case TypeEdit:
		return h.Edit
	case TypeRename:
		return h.Rename
	case TypeInspect:
		return h.Inspect
	case TypeDelete:
		return h.Delete
	}
	return nil
}

func missing(t Type) error {
	return &CommandError{Code: ErrCodeHandlerMissing, Message: fmt.Sprintf("%s handler not configured", t)}
}
