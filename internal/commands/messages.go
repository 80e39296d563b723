package commands

// ReactionPrompt is posted under each rated message with the LIKE and
// DISLIKE buttons.
const ReactionPrompt = "Was this helpful?:"

const (
	msgUnauthorized     = "UNAUTHORIZED. ONLY GROUP ADMINS CAN CALL THIS COMMAND"
	msgNotRegistered    = "YOU ARE NOT REGISTERED."
	msgReceiverUnknown  = "RECEIVER IS NOT REGISTERED."
	msgTipUsage         = "INVALID TIP COMMAND. USE '/tip @receiverUsername amount'"
	msgInvalidReceiver  = "INVALID RECEIVER USERNAME."
	msgInvalidQuery     = "INVALID QUERY."
	msgAccountExists    = "ACCOUNT ALREADY EXIST"
	msgGroupExists      = "GROUP ALREADY INITIALIZED"
	msgInitialized      = "INITIALIZATION SUCCESSFUL."
	msgTxFailed         = "COULD NOT PROCESS TRANSACTION."
	msgTipSuccess       = "TIP SUCCESSFUL."
	msgRewardSet        = "REWARD SET"
	msgWithdrawSuccess  = "WITHDRAW SUCCESSFUL"
	msgFundSuccess      = "FUNDING SUCCESSFUL"
	msgNoReward         = "NO REWARD."
	msgClaimSuccess     = "REWARDED SUCCESSFUL."
	msgReactionSettled  = "REWARD SUCCESSFUL."
	msgAlreadyReacted   = "Already Reacted"
	msgReactionRecorded = "Success"
	msgReactionFailed   = "Try again later"
)
